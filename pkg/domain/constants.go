package domain

// Well-known file and directory names shared across components.
const (
	// RunDirName is appended to the resolved run directory and used as the
	// per-measure working directory name.
	RunDirName = "run"

	// MeasureAttributesFile holds attributes of model and EnergyPlus measures.
	MeasureAttributesFile = "measure_attributes.json"
	// MeasureAttributesXMLFile holds attributes carried over from manifest-era tooling.
	MeasureAttributesXMLFile = "measure_attributes_xml.json"
	// ReportAttributesFile holds attributes of reporting measures.
	ReportAttributesFile = "report_measure_attributes.json"
	// ResultsFile is the merged, sanitized results document.
	ResultsFile = "results.json"
	// LegacyReportFile is the converted EnergyPlus tabular report.
	LegacyReportFile = "standard_report_legacy.json"

	// InputIDF is the EnergyPlus input file written before simulation.
	InputIDF = "in.idf"
	// SQLOutputFile is the EnergyPlus SQLite output.
	SQLOutputFile = "eplusout.sql"
)

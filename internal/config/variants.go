package config

// Variants enumerates the UI shapes the dashboard has shipped for the same actions.
// Selectors are CSS unless the field name says XPath.
type Variants struct {
	LoginURL  string
	ReportURL string

	UsernameInput string
	PasswordInput string

	// The report menu is the fifth sidebar entry.
	MenuXPath    string
	MenuPosition string
	MenuIcon     string

	ReportLinkXPath    string
	ReportLinkPosition string

	TruckSelects   []string
	AllScopeLabels []string

	ReportTypeDropdownID string

	StartDateInput string
	EndDateInput   string

	SearchXPath    string
	SearchPosition string

	ExportByID    string
	ExportByTitle string
	ExportByName  string
}

var DefaultVariants = Variants{
	LoginURL: "https://gps.dtc.co.th/ultimate/index.php",

	UsernameInput: "#txtname",
	PasswordInput: "#txtpass",

	MenuXPath:    `//*[@id="sidebar"]//*[contains(text(), "รายงาน")]`,
	MenuPosition: "#sidebar li:nth-of-type(5) > a",
	MenuIcon:     "#sidebar li:nth-of-type(5) i",

	ReportLinkXPath:    `//*[contains(text(), "รายงานสถานะ DMS")]`,
	ReportLinkPosition: "div:nth-of-type(5) > div:nth-of-type(2) li:nth-of-type(1) > a",

	TruckSelects:   []string{"#truck", "#ddltruck", "select[name='truck']", "select[name='veh_id']"},
	AllScopeLabels: []string{"ทั้งหมด", "All"},

	ReportTypeDropdownID: "reporttype",

	StartDateInput: "#date9",
	EndDateInput:   "#date10",

	SearchXPath:    `//*[contains(text(), "ค้นหา")] | //span[contains(@class, "icon-search")] | //i[contains(@class, "icon-search")]`,
	SearchPosition: "td:nth-of-type(5) > span",

	ExportByID:    "#btnexport",
	ExportByTitle: `button[title="Excel"]`,
	ExportByName:  `//*[@aria-label="Excel"] | //button[normalize-space(.)="Excel"]`,
}

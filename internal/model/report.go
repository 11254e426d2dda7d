package model

// PortfolioReport is the material for a generated report file.
type PortfolioReport struct {
	Positions []Position
	Totals    PortfolioTotals
	History   []ValuePoint
	Lots      []Lot
}

// ReportFile is a generated report: either the file itself or, when it is
// too big to send directly, a download link.
type ReportFile struct {
	FileBytes    []byte
	Filename     string
	DownloadLink string
}

package documents

// Info is the subset of PDF document metadata exposed to clients.
type Info struct {
	Title   string `json:"Title,omitempty"`
	Author  string `json:"Author,omitempty"`
	Subject string `json:"Subject,omitempty"`
}

// Extraction is the text pulled out of an uploaded document.
type Extraction struct {
	Text     string `json:"text"`
	NumPages int    `json:"numPages"`
	Info     *Info  `json:"info,omitempty"`
}

package lifecycle

// StatusDisplay is the presentation of a status in list views. Kept apart
// from the transition rules: the domain table never carries icons or colours.
type StatusDisplay struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var displays = map[string]StatusDisplay{
	StatusCreated:    {Label: "Created", Icon: "file", Color: "grey"},
	StatusNotStarted: {Label: "Not started", Icon: "hourglass-start", Color: "red"},
	StatusStarted:    {Label: "In progress", Icon: "pencil", Color: "orange"},
	StatusSubmitted:  {Label: "Submitted", Icon: "check", Color: "blue"},
	StatusReleased:   {Label: "Released", Icon: "envelope-open", Color: "green"},
}

// Display returns the presentation entry for a status. Unknown statuses get
// a neutral fallback rather than a panic, since old rows may predate a
// rename.
func Display(status string) StatusDisplay {
	if d, ok := displays[status]; ok {
		return d
	}
	return StatusDisplay{Label: status, Icon: "question", Color: "grey"}
}

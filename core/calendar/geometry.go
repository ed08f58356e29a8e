package calendar

// Geometry maps positioned events to boxes on the rendering surface.
type Geometry struct {
	DayStart        Clock   // time of day at the top of the column
	PixelsPerMinute float64 // vertical scale
	MinHeight       int     // minimum box height, in minutes
}

// Box is the position of an event on the rendering surface.
// Top and Height are in pixels, Left and Width in percent of the column width.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

func DefaultGeometry() Geometry {
	return Geometry{DayStart: 0, PixelsPerMinute: 1, MinHeight: MinDuration}
}

func (g Geometry) Box(pe PositionedEvent) Box {
	ppm := g.PixelsPerMinute
	if ppm <= 0 {
		ppm = 1
	}
	minHeight := g.MinHeight
	if minHeight <= 0 {
		minHeight = MinDuration
	}
	dayStart := g.DayStart
	if !dayStart.Valid() {
		dayStart = 0
	}
	total := pe.TotalColumns
	if total < 1 {
		total = 1
	}

	start, end := pe.Span()
	top := int(start - dayStart)
	if top < 0 {
		top = 0
	}
	duration := int(end - start)
	if duration < minHeight {
		duration = minHeight
	}
	return Box{
		Top:    float64(top) * ppm,
		Height: float64(duration) * ppm,
		Left:   float64(pe.Column) / float64(total) * 100,
		Width:  100 / float64(total),
	}
}

func (g Geometry) Boxes(events []PositionedEvent) []Box {
	boxes := make([]Box, len(events))
	for i, pe := range events {
		boxes[i] = g.Box(pe)
	}
	return boxes
}

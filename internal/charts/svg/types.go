package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	Fill        bool
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarSeries is one coloured value column.
type BarSeries struct {
	Label  string
	Values []float64
	Color  string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	Stacked     bool
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// PieOpts customises the pie renderer.
type PieOpts struct {
	Title       string
	Description string
	Palette     []string
	TextColor   string
}

// Chart defaults.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 5
)

var defaultPalette = []string{"#18BC9C", "#2C3E50", "#E74C3C", "#3498DB", "#F39C12", "#95A5A6"}

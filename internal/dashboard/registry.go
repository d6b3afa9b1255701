package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumethik/tablero/internal/charts"
	"github.com/lumethik/tablero/internal/data"
)

// ErrUnknownView is returned when a ViewID has no builder.
var ErrUnknownView = errors.New("unknown view")

// Colours and labels shared by the chart pages.
const (
	ColorCasos       = "#18BC9C"
	ColorResueltos   = "#2C3E50"
	ColorPendientes  = "#E74C3C"
	ColorPerformance = "#0000FF"
	ColorIngresos    = "#008000"
	ColorGastos      = "#FF0000"

	NoticeUnavailable = "Datos no disponibles en este momento."
)

// PastelPalette colours the indicator charts.
var PastelPalette = []string{"#f4c7c3", "#f7d7b3", "#f3e3d4", "#e0c9f0", "#d1f0e1", "#f9e0a1"}

// Panel and table identifiers, also used as DOM ids.
const (
	PanelCasos       = "casos"
	PanelEstado      = "estado"
	PanelBarras      = "barras"
	PanelTendencia   = "tendencia"
	PanelTorta       = "torta"
	PanelColumna     = "columna"
	PanelHistograma  = "histograma"
	PanelPerformance = "performance"
	PanelFinanzas    = "finanzas"
	TableIndicadores = "indicadores"
	TableDatos       = "datos"
)

// FetchObserver is told about failed provider calls.
type FetchObserver interface {
	ObserveFetchError(source string)
}

// SheetOptions configures the spreadsheet view.
type SheetOptions struct {
	HistogramX string
	HistogramY string
	Bins       int
	PageSize   int
}

// RegistryParams groups the registry collaborators.
type RegistryParams struct {
	Logger       *slog.Logger
	Directions   data.Provider
	Indicators   data.Provider
	Sheet        data.Provider
	Talent       data.Provider
	Finance      data.Provider
	SheetOptions SheetOptions
	Debug        bool
	FetchTimeout time.Duration
	Observer     FetchObserver
}

// Registry builds the page tree of each view.
type Registry struct {
	logger       *slog.Logger
	directions   data.Provider
	indicators   data.Provider
	sheet        data.Provider
	talent       data.Provider
	finance      data.Provider
	sheetOpts    SheetOptions
	debug        bool
	fetchTimeout time.Duration
	observer     FetchObserver
}

// NewRegistry constructs a Registry.
func NewRegistry(p RegistryParams) *Registry {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := p.SheetOptions
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.Bins <= 0 {
		opts.Bins = charts.DefaultBins
	}
	timeout := p.FetchTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{
		logger:       logger,
		directions:   p.Directions,
		indicators:   p.Indicators,
		sheet:        p.Sheet,
		talent:       p.Talent,
		finance:      p.Finance,
		sheetOpts:    opts,
		debug:        p.Debug,
		fetchTimeout: timeout,
		observer:     p.Observer,
	}
}

// Remote reports whether building id waits on a network source.
func (r *Registry) Remote(id ViewID) bool {
	switch id.Kind {
	case ViewDirection:
		return r.directions != nil && r.directions.Remote()
	case ViewIndicators:
		return r.indicators != nil && r.indicators.Remote()
	case ViewSheet:
		return r.sheet != nil && r.sheet.Remote()
	case ViewTalent:
		return r.talent != nil && r.talent.Remote()
	case ViewFinance:
		return r.finance != nil && r.finance.Remote()
	default:
		return false
	}
}

// Build produces the page of id. It is idempotent for identical provider
// output. Chart failures stay local to their panel except shape mismatches
// in debug mode, which are returned.
func (r *Registry) Build(ctx context.Context, id ViewID, sel Selection) (Page, error) {
	sel = sel.withDefaults()
	page, err := r.frame(id)
	if err != nil {
		return Page{}, err
	}
	switch id.Kind {
	case ViewLogin, ViewHome, ViewNotFound:
		return page, nil
	case ViewDirection:
		info, _ := LookupDirection(id.Name)
		rec, fetchErr := r.fetch(ctx, "directions", r.directions, id.Name)
		return r.directionPage(page, info, rec, fetchErr)
	case ViewIndicators:
		rec, fetchErr := r.fetch(ctx, "indicators", r.indicators, sel.Area)
		return r.indicatorsPage(page, sel, rec, fetchErr)
	case ViewSheet:
		rec, fetchErr := r.fetch(ctx, "sheet", r.sheet, "")
		return r.sheetPage(page, sel, rec, fetchErr)
	case ViewTalent:
		rec, fetchErr := r.fetch(ctx, "talent", r.talent, sel.Category)
		return r.talentPage(page, sel, rec, fetchErr)
	case ViewFinance:
		rec, fetchErr := r.fetch(ctx, "finance", r.finance, "")
		return r.financePage(page, rec, fetchErr)
	}
	return Page{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
}

// Pending is the page of id with every data slot in the loading state. It
// is served first for remote views.
func (r *Registry) Pending(id ViewID, sel Selection) (Page, error) {
	sel = sel.withDefaults()
	page, err := r.frame(id)
	if err != nil {
		return Page{}, err
	}
	loading := func(panelID string, kind charts.Kind, title string) Panel {
		return Panel{ID: panelID, Chart: charts.Placeholder(kind, title), State: PanelLoading}
	}
	switch id.Kind {
	case ViewDirection:
		info, _ := LookupDirection(id.Name)
		page.Panels = []Panel{
			loading(PanelCasos, charts.KindLine, "Casos Mensuales - "+info.Title),
			loading(PanelEstado, charts.KindStackedBar, "Estado de Casos"),
		}
		page.Tables = []Table{{ID: TableIndicadores, Title: "Indicadores de Gestión", State: PanelLoading}}
	case ViewIndicators:
		suffix := fmt.Sprintf("%s (%s)", sel.Area, sel.Period)
		page.Selectors = &Selectors{Areas: data.Areas, Periods: data.Periods, Current: sel}
		page.Panels = []Panel{
			loading(PanelBarras, charts.KindBar, "Indicadores de Gestión: "+suffix),
			loading(PanelTendencia, charts.KindLine, "Tendencia de Gestión: "+suffix),
			loading(PanelTorta, charts.KindPie, "Distribución de Indicadores: "+suffix),
		}
	case ViewSheet:
		page.Selectors = &Selectors{Current: sel}
		page.Panels = []Panel{
			loading(PanelColumna, charts.KindLine, "Gráfico de "+sel.Column),
			loading(PanelHistograma, charts.KindBar, r.histogramTitle()),
		}
		page.Tables = []Table{{ID: TableDatos, Title: "Datos", State: PanelLoading}}
	case ViewTalent:
		page = withTalentFrame(page, sel)
		page.Panels = []Panel{loading(PanelPerformance, charts.KindBar, talentChartTitle)}
	case ViewFinance:
		page.Panels = []Panel{loading(PanelFinanzas, charts.KindLine, financeChartTitle)}
	}
	return page, nil
}

func (r *Registry) frame(id ViewID) (Page, error) {
	page := Page{View: id}
	switch id.Kind {
	case ViewLogin:
		page.Title = "Dashboard EPS"
		page.Login = &LoginForm{
			Action:              "/login",
			Heading:             "Dashboard EPS",
			UserPlaceholder:     "Usuario",
			PasswordPlaceholder: "Contraseña",
			Submit:              "Iniciar Sesión",
		}
		return page, nil
	case ViewHome:
		page.Path = PathHome
		page.Title = "Inicio"
		page.Cards = []Card{
			{Title: "Indicadores Generales", Body: "Visualización de métricas clave de la EPS"},
			{Title: "Gestión de Usuarios", Body: "Información sobre afiliados y servicios"},
			{Title: "Procesos", Body: "Estado de procesos y trámites"},
		}
	case ViewDirection:
		info, ok := LookupDirection(id.Name)
		if !ok {
			return Page{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
		}
		page.Path = info.Path
		page.Title = info.Title
	case ViewIndicators:
		page.Path = PathIndicators
		page.Title = "Indicadores por Área"
	case ViewSheet:
		page.Path = PathSheet
		page.Title = "Hoja de Cálculo"
	case ViewTalent:
		page.Path = PathTalent
		page.Title = "Sección Talento Humano"
	case ViewFinance:
		page.Path = PathFinance
		page.Title = "Sección Finanzas"
		page.Message = "Este panel muestra ingresos y gastos mensuales."
	case ViewNotFound:
		page.Title = "Página no encontrada"
		page.Message = "La página solicitada no existe."
	default:
		return Page{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
	}
	page.Nav = navigation()
	return page, nil
}

func navigation() []NavLink {
	links := make([]NavLink, 0, len(Directions)+5)
	links = append(links, NavLink{Label: "Inicio", Path: PathHome})
	for _, d := range Directions {
		links = append(links, NavLink{Label: d.Title, Path: d.Path})
	}
	links = append(links,
		NavLink{Label: "Indicadores", Path: PathIndicators},
		NavLink{Label: "Hoja de Cálculo", Path: PathSheet},
		NavLink{Label: "Talento Humano", Path: PathTalent},
		NavLink{Label: "Finanzas", Path: PathFinance},
	)
	return links
}

func (r *Registry) fetch(ctx context.Context, source string, p data.Provider, category string) (data.Record, error) {
	if p == nil {
		return data.Record{}, fmt.Errorf("%w: %s source not configured", data.ErrDataUnavailable, source)
	}
	if p.Remote() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}
	rec, err := p.Fetch(ctx, category)
	if err != nil {
		if r.observer != nil {
			r.observer.ObserveFetchError(source)
		}
		r.logger.Warn("fetch", slog.String("source", source), slog.String("category", category), slog.Any("error", err))
	}
	return rec, err
}

// panel builds one chart, containing failures to the panel.
func (r *Registry) panel(id string, kind charts.Kind, title string, build func() (charts.Descriptor, error)) (Panel, error) {
	d, err := build()
	if err != nil {
		if errors.Is(err, charts.ErrShapeMismatch) && r.debug {
			return Panel{}, fmt.Errorf("panel %s: %w", id, err)
		}
		r.logger.Error("chart build", slog.String("panel", id), slog.Any("error", err))
		notice := ""
		if errors.Is(err, data.ErrDataUnavailable) {
			notice = NoticeUnavailable
		}
		return Panel{ID: id, Chart: charts.Placeholder(kind, title), State: PanelEmpty, Notice: notice}, nil
	}
	state := PanelReady
	if d.Empty() {
		state = PanelEmpty
	}
	return Panel{ID: id, Chart: d, State: state}, nil
}

func unavailablePanel(id string, kind charts.Kind, title string) Panel {
	return Panel{ID: id, Chart: charts.Placeholder(kind, title), State: PanelEmpty, Notice: NoticeUnavailable}
}

func (r *Registry) directionPage(page Page, info DirectionInfo, rec data.Record, fetchErr error) (Page, error) {
	casosTitle := "Casos Mensuales - " + info.Title
	estadoTitle := "Estado de Casos"
	table := Table{ID: TableIndicadores, Title: "Indicadores de Gestión", Record: rec}

	if fetchErr == nil {
		fetchErr = rec.Require(data.ColumnCasos, data.ColumnResueltos, data.ColumnPendientes)
	}
	if fetchErr != nil {
		page.Notice = NoticeUnavailable
		page.Panels = []Panel{
			unavailablePanel(PanelCasos, charts.KindLine, casosTitle),
			unavailablePanel(PanelEstado, charts.KindStackedBar, estadoTitle),
		}
		table.Record = data.Record{Category: info.Key}
		table.State = PanelEmpty
		page.Tables = []Table{table}
		return page, nil
	}

	labels := rec.Labels()
	casos, _ := rec.Column(data.ColumnCasos)
	resueltos, _ := rec.Column(data.ColumnResueltos)
	pendientes, _ := rec.Column(data.ColumnPendientes)

	casosPanel, err := r.panel(PanelCasos, charts.KindLine, casosTitle, func() (charts.Descriptor, error) {
		d, err := charts.LineWithArea(labels, casos, casosTitle)
		if err != nil {
			return d, err
		}
		return d.WithColors(ColorCasos).WithSeriesNames("Casos Totales"), nil
	})
	if err != nil {
		return Page{}, err
	}
	estadoPanel, err := r.panel(PanelEstado, charts.KindStackedBar, estadoTitle, func() (charts.Descriptor, error) {
		return charts.StackedBars(labels, []charts.Series{
			{Name: data.ColumnResueltos, Values: resueltos, Color: ColorResueltos},
			{Name: data.ColumnPendientes, Values: pendientes, Color: ColorPendientes},
		}, estadoTitle)
	})
	if err != nil {
		return Page{}, err
	}
	page.Panels = []Panel{casosPanel, estadoPanel}
	page.Tables = []Table{table}
	return page, nil
}

func (r *Registry) indicatorsPage(page Page, sel Selection, rec data.Record, fetchErr error) (Page, error) {
	suffix := fmt.Sprintf("%s (%s)", sel.Area, sel.Period)
	barTitle := "Indicadores de Gestión: " + suffix
	lineTitle := "Tendencia de Gestión: " + suffix
	pieTitle := "Distribución de Indicadores: " + suffix
	page.Selectors = &Selectors{Areas: data.Areas, Periods: data.Periods, Current: sel}

	if fetchErr == nil {
		fetchErr = rec.Require(data.ColumnValor)
	}
	if fetchErr != nil {
		page.Notice = NoticeUnavailable
		page.Panels = []Panel{
			unavailablePanel(PanelBarras, charts.KindBar, barTitle),
			unavailablePanel(PanelTendencia, charts.KindLine, lineTitle),
			unavailablePanel(PanelTorta, charts.KindPie, pieTitle),
		}
		return page, nil
	}

	labels := rec.Labels()
	values, _ := rec.Column(data.ColumnValor)
	specs := []struct {
		id    string
		kind  charts.Kind
		title string
		build func([]string, []float64, string) (charts.Descriptor, error)
	}{
		{PanelBarras, charts.KindBar, barTitle, charts.Bar},
		{PanelTendencia, charts.KindLine, lineTitle, charts.Line},
		{PanelTorta, charts.KindPie, pieTitle, charts.Pie},
	}
	for _, spec := range specs {
		spec := spec
		p, err := r.panel(spec.id, spec.kind, spec.title, func() (charts.Descriptor, error) {
			d, err := spec.build(labels, values, spec.title)
			if err != nil {
				return d, err
			}
			return d.WithPalette(PastelPalette...).WithSeriesNames(data.ColumnValor), nil
		})
		if err != nil {
			return Page{}, err
		}
		page.Panels = append(page.Panels, p)
	}
	return page, nil
}

func (r *Registry) histogramTitle() string {
	return fmt.Sprintf("Histograma: %s por %s", r.sheetOpts.HistogramY, r.sheetOpts.HistogramX)
}

func (r *Registry) sheetPage(page Page, sel Selection, rec data.Record, fetchErr error) (Page, error) {
	histTitle := r.histogramTitle()
	table := Table{ID: TableDatos, Title: "Datos"}

	if fetchErr != nil {
		page.Notice = NoticeUnavailable
		page.Selectors = &Selectors{Current: sel}
		page.Panels = []Panel{
			unavailablePanel(PanelColumna, charts.KindLine, "Gráfico de "+sel.Column),
			unavailablePanel(PanelHistograma, charts.KindBar, histTitle),
		}
		table.State = PanelEmpty
		page.Tables = []Table{table}
		return page, nil
	}

	column := sel.Column
	if column == "" && len(rec.Metrics) > 0 {
		column = rec.Metrics[0]
	}
	current := sel
	current.Column = column
	page.Selectors = &Selectors{Columns: rec.Metrics, Current: current}

	lineTitle := "Gráfico de " + column
	linePanel, err := r.panel(PanelColumna, charts.KindLine, lineTitle, func() (charts.Descriptor, error) {
		values, ok := rec.Column(column)
		if !ok {
			return charts.Placeholder(charts.KindLine, lineTitle), nil
		}
		return charts.Line(rec.Labels(), values, lineTitle)
	})
	if err != nil {
		return Page{}, err
	}

	histPanel, err := r.panel(PanelHistograma, charts.KindBar, histTitle, func() (charts.Descriptor, error) {
		if err := rec.Require(r.sheetOpts.HistogramX, r.sheetOpts.HistogramY); err != nil {
			return charts.Descriptor{}, err
		}
		xs, _ := rec.Column(r.sheetOpts.HistogramX)
		ys, _ := rec.Column(r.sheetOpts.HistogramY)
		d, err := charts.Histogram(xs, ys, r.sheetOpts.Bins, histTitle)
		if err != nil {
			return d, err
		}
		return d.WithSeriesNames(r.sheetOpts.HistogramY), nil
	})
	if err != nil {
		return Page{}, err
	}

	table.Record = rec.Head(r.sheetOpts.PageSize)
	if table.Record.Empty() {
		table.State = PanelEmpty
	}
	page.Panels = []Panel{linePanel, histPanel}
	page.Tables = []Table{table}
	return page, nil
}

const (
	talentChartTitle  = "Performance por Departamento"
	financeChartTitle = "Ingresos vs Gastos"
)

// talentSections are the static analysis blocks of the talent page.
var talentSections = []Card{
	{Title: "Análisis Descriptivo", Body: "En esta sección se detalla el análisis descriptivo de los datos."},
	{Title: "Diagnóstico", Body: "Aquí se encuentra el diagnóstico basado en los datos disponibles."},
	{Title: "Predictivo", Body: "Predicciones y proyecciones basadas en modelos de datos."},
}

func withTalentFrame(page Page, sel Selection) Page {
	page.Selectors = &Selectors{Categories: data.TalentCategories, Current: sel}
	page.Cards = append([]Card(nil), talentSections...)
	if label, ok := data.TalentCategoryLabel(sel.Category); ok {
		page.Message = "Categoría seleccionada: " + label
	}
	return page
}

func (r *Registry) talentPage(page Page, sel Selection, rec data.Record, fetchErr error) (Page, error) {
	page = withTalentFrame(page, sel)
	if fetchErr == nil {
		fetchErr = rec.Require(data.ColumnPerformance)
	}
	if fetchErr != nil {
		page.Notice = NoticeUnavailable
		page.Panels = []Panel{unavailablePanel(PanelPerformance, charts.KindBar, talentChartTitle)}
		return page, nil
	}

	scores, _ := rec.Column(data.ColumnPerformance)
	p, err := r.panel(PanelPerformance, charts.KindBar, talentChartTitle, func() (charts.Descriptor, error) {
		d, err := charts.Bar(rec.Labels(), scores, talentChartTitle)
		if err != nil {
			return d, err
		}
		return d.WithColors(ColorPerformance).WithSeriesNames(data.ColumnPerformance), nil
	})
	if err != nil {
		return Page{}, err
	}
	page.Panels = []Panel{p}
	return page, nil
}

func (r *Registry) financePage(page Page, rec data.Record, fetchErr error) (Page, error) {
	if fetchErr == nil {
		fetchErr = rec.Require(data.ColumnIngresos, data.ColumnGastos)
	}
	if fetchErr != nil {
		page.Notice = NoticeUnavailable
		page.Panels = []Panel{unavailablePanel(PanelFinanzas, charts.KindLine, financeChartTitle)}
		return page, nil
	}

	ingresos, _ := rec.Column(data.ColumnIngresos)
	gastos, _ := rec.Column(data.ColumnGastos)
	p, err := r.panel(PanelFinanzas, charts.KindLine, financeChartTitle, func() (charts.Descriptor, error) {
		return charts.Lines(rec.Labels(), []charts.Series{
			{Name: data.ColumnIngresos, Values: ingresos, Color: ColorIngresos},
			{Name: data.ColumnGastos, Values: gastos, Color: ColorGastos},
		}, financeChartTitle)
	})
	if err != nil {
		return Page{}, err
	}
	page.Panels = []Panel{p}
	return page, nil
}

package main

import (
	"context"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/cpview/pkg/config"
	"github.com/chazu/cpview/pkg/gradient"
	"github.com/chazu/cpview/pkg/segment"
	"github.com/chazu/cpview/pkg/viewer"
)

// Renderer events emitted to the frontend.
const (
	EventDispose = "segments:dispose"
	EventInstall = "segments:install"
	EventRecolor = "segments:recolor"
)

// App is the Wails backend. It exposes methods to the frontend via
// bindings and renders segment sets by emitting events the frontend
// turns into scene meshes.
type App struct {
	ctx    context.Context
	log    *slog.Logger
	viewer *viewer.Viewer

	// emit overrides runtime.EventsEmit when set.
	emit func(event string, payload any)
}

// MeshData is the JSON-serializable segment format sent to the frontend.
type MeshData struct {
	Vertices  []float32    `json:"vertices"`
	Normals   []float32    `json:"normals"`
	Colors    []float32    `json:"colors"`
	PartName  string       `json:"partName"`
	Axis      segment.Axis `json:"axis"`
	AxisRange [2]float64   `json:"axisRange"`
	Index     int          `json:"index"`
	Visible   bool         `json:"visible"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is returned by every model-loading binding.
type LoadResult struct {
	Segments []viewer.ListItem `json:"segments"`
	Report   viewer.Report     `json:"report"`
	Error    string            `json:"error,omitempty"`
}

// ProfileResult is returned by EvaluateProfile.
type ProfileResult struct {
	Values   []float64         `json:"values"`
	Errors   []EvalErrorData   `json:"errors"`
	Segments []viewer.ListItem `json:"segments"`
}

// NewApp creates an App whose viewer renders through the app itself.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{log: logger}
	a.viewer = viewer.New(cfg, a, logger)
	return a
}

// startup is called by Wails on app startup. The context is saved for
// runtime calls, then the bundled model is shown.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	if err := a.viewer.LoadDefault(ctx); err != nil {
		a.log.Error("default model failed", "error", err)
	}
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	a.viewer.Close()
}

func (a *App) emitEvent(event string, payload any) {
	if a.emit != nil {
		a.emit(event, payload)
		return
	}
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, event, payload)
	}
}

func meshData(set *segment.Set) []MeshData {
	out := make([]MeshData, 0, set.Len())
	for _, s := range set.All() {
		out = append(out, MeshData{
			Vertices:  s.Mesh.Vertices,
			Normals:   s.Mesh.Normals,
			Colors:    s.Mesh.Colors,
			PartName:  s.Name,
			Axis:      s.Axis,
			AxisRange: s.AxisRange,
			Index:     s.Index,
			Visible:   s.Visible,
		})
	}
	return out
}

// Install implements viewer.Renderer.
func (a *App) Install(set *segment.Set) {
	a.emitEvent(EventInstall, meshData(set))
}

// Dispose implements viewer.Renderer. The payload is the list of part
// names to drop.
func (a *App) Dispose(set *segment.Set) {
	a.emitEvent(EventDispose, set.Names())
}

// Recolor implements viewer.Renderer. Geometry is resent with new colors
// and visibility; the frontend swaps attributes in place.
func (a *App) Recolor(set *segment.Set) {
	a.emitEvent(EventRecolor, meshData(set))
}

func (a *App) loadResult(err error) LoadResult {
	res := LoadResult{Segments: a.viewer.Segments(), Report: a.viewer.Inspect()}
	if err != nil {
		a.log.Error("load failed", "error", err)
		res.Error = err.Error()
	}
	return res
}

// OpenFile shows the native file dialog and loads the chosen model.
// A cancelled dialog changes nothing.
func (a *App) OpenFile() LoadResult {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open model",
		Filters: []runtime.FileFilter{
			{DisplayName: "Meshes (*.stl, *.obj)", Pattern: "*.stl;*.obj"},
		},
	})
	if err != nil {
		return a.loadResult(err)
	}
	if path == "" {
		return a.loadResult(nil)
	}
	return a.LoadFile(path)
}

// LoadFile loads the model at path.
func (a *App) LoadFile(path string) LoadResult {
	return a.loadResult(a.viewer.LoadFile(a.context(), path))
}

// LoadDefault shows the bundled jacket model.
func (a *App) LoadDefault() LoadResult {
	return a.loadResult(a.viewer.LoadDefault(a.context()))
}

// SetPotentials recolors with new node values and color range at once.
// It returns the updated list view, or an error message.
func (a *App) SetPotentials(values []float64, red, blue float64) ([]viewer.ListItem, string) {
	err := a.viewer.SetPotentials(gradient.Potentials{
		NodeValues: values,
		ColorRange: gradient.ColorRange{Red: red, Blue: blue},
	})
	if err != nil {
		return a.viewer.Segments(), err.Error()
	}
	return a.viewer.Segments(), ""
}

// RequestPotentials is SetPotentials for slider drags: requests are
// debounced and applied later.
func (a *App) RequestPotentials(values []float64, red, blue float64) string {
	err := a.viewer.RequestPotentials(gradient.Potentials{
		NodeValues: values,
		ColorRange: gradient.ColorRange{Red: red, Blue: blue},
	})
	if err != nil {
		return err.Error()
	}
	return ""
}

// EvaluateProfile runs a profile script and adopts its values.
func (a *App) EvaluateProfile(source string) ProfileResult {
	result := ProfileResult{
		Values: []float64{},
		Errors: []EvalErrorData{},
	}

	values, evalErrs, err := a.viewer.EvaluateProfile(source)
	if err != nil {
		a.log.Error("profile evaluation failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if len(result.Errors) == 0 && values != nil {
		result.Values = values
	}
	result.Segments = a.viewer.Segments()
	return result
}

// SetVisible shows or hides one segment. It returns an error message or "".
func (a *App) SetVisible(name string, visible bool) string {
	if err := a.viewer.SetVisible(name, visible); err != nil {
		return err.Error()
	}
	return ""
}

// Segments returns the list view.
func (a *App) Segments() []viewer.ListItem {
	return a.viewer.Segments()
}

// Legend returns the color scale for the current color range.
func (a *App) Legend() []viewer.LegendStop {
	return a.viewer.Legend()
}

// Inspect returns the inspection report of the loaded model.
func (a *App) Inspect() viewer.Report {
	return a.viewer.Inspect()
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
	"github.com/fraction12/wireflow/internal/templates"
	"github.com/fraction12/wireflow/internal/typography"
)

var (
	eng      *engine.Engine
	fonts    *typography.Measurer
	registry *templates.Registry
)

func main() {
	fonts = typography.Default()
	registry = templates.NewRegistry(fonts)
	eng = engine.New(engine.Options{
		Measurer:  fonts,
		Templates: registry,
		Notifier:  engine.NotifierFunc(notify),
	})
	eng.OnCommit(committed)

	wireflowEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	wireflowEngine.Set("loadDocument", js.FuncOf(loadDocument))
	wireflowEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	wireflowEngine.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	wireflowEngine.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	wireflowEngine.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	wireflowEngine.Set("doubleClick", js.FuncOf(pointer(eng.DoubleClick)))
	wireflowEngine.Set("keyDown", js.FuncOf(keyDown))
	wireflowEngine.Set("textInput", js.FuncOf(textInput))
	wireflowEngine.Set("blur", js.FuncOf(blur))
	wireflowEngine.Set("cancel", js.FuncOf(cancel))
	wireflowEngine.Set("setTool", js.FuncOf(setTool))
	wireflowEngine.Set("setViewport", js.FuncOf(setViewport))
	wireflowEngine.Set("setGrid", js.FuncOf(setGrid))
	wireflowEngine.Set("setSelection", js.FuncOf(setSelection))
	wireflowEngine.Set("setActiveFrame", js.FuncOf(setActiveFrame))
	wireflowEngine.Set("instantiateTemplate", js.FuncOf(instantiateTemplate))
	wireflowEngine.Set("undo", js.FuncOf(undo))
	wireflowEngine.Set("redo", js.FuncOf(redo))

	// --- Queries (frontend ← backend) ---
	wireflowEngine.Set("render", js.FuncOf(render))
	wireflowEngine.Set("getView", js.FuncOf(getView))
	wireflowEngine.Set("hitTest", js.FuncOf(hitTest))
	wireflowEngine.Set("getDocument", js.FuncOf(getDocument))
	wireflowEngine.Set("getSelection", js.FuncOf(getSelection))
	wireflowEngine.Set("getFrames", js.FuncOf(getFrames))
	wireflowEngine.Set("getTemplates", js.FuncOf(getTemplates))

	js.Global().Set("wireflowEngine", wireflowEngine)
	js.Global().Set("wireflowWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult(ok bool) interface{} {
	return js.ValueOf(map[string]interface{}{"ok": ok})
}

// callback invokes a global JS function if the page defined one.
func callback(name string, arg string) {
	fn := js.Global().Get(name)
	if fn.Type() == js.TypeFunction {
		fn.Invoke(arg)
	}
}

func committed(state *document.DocumentState) {
	callback("wireflowOnCommit", toJSON(state))
}

func notify(n engine.Notice) {
	callback("wireflowOnNotice", toJSON(n))
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing document JSON")
	}
	var state document.DocumentState
	if err := json.Unmarshal([]byte(args[0].String()), &state); err != nil {
		return errorResult(err.Error())
	}
	report := eng.LoadState(&state)
	return js.ValueOf(map[string]interface{}{
		"ok":                true,
		"orphanedInstances": report.OrphanedInstances,
		"danglingRefs":      report.DanglingRefs,
	})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	eng.LoadState(document.NewSampleDocument(fonts))
	return okResult(true)
}

// pointer adapts a pointer handler to a JS function taking event JSON.
func pointer(handle func(engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		var ev engine.PointerEvent
		if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
			return errorResult(err.Error())
		}
		handle(ev)
		return nil
	}
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var k engine.KeyEvent
	if err := json.Unmarshal([]byte(args[0].String()), &k); err != nil {
		return js.ValueOf(false)
	}
	// true tells the page to preventDefault.
	return js.ValueOf(eng.KeyDown(k))
}

func textInput(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.TextInput(args[0].String()))
}

func blur(this js.Value, args []js.Value) interface{} {
	eng.Blur()
	return nil
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetTool(engine.Tool(args[0].String())))
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetViewport(engine.Viewport{PanX: args[0].Float(), PanY: args[1].Float(), Zoom: args[2].Float()})
	return nil
}

func setGrid(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetGridEnabled(args[0].Bool())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.ClearSelection()
		return nil
	}
	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	eng.Select(ids)
	return nil
}

func setActiveFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return okResult(false)
	}
	return okResult(eng.SetActiveFrame(args[0].String()))
}

func instantiateTemplate(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("usage: instantiateTemplate(name, x, y)")
	}
	id, ok := eng.InstantiateTemplate(args[0].String(), args[1].Float(), args[2].Float())
	if !ok {
		return errorResult("unknown template " + args[0].String())
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func undo(this js.Value, args []js.Value) interface{} {
	return okResult(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return okResult(eng.Redo())
}

// --- Query Handlers ---

// render returns the draw-command buffer for the active frame as JSON.
func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(engine.CompileDrawCommands(eng.View(), fonts)))
}

func getView(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.View()))
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Document()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Selection()))
}

func getFrames(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Frames()))
}

func getTemplates(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(registry.Names()))
}

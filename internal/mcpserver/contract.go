package mcpserver

// OperationContract describes the envelope accepted by apply_operation.
const OperationContract = `# WireFlow Operation Contract

Every change is one JSON object with a "type" and the fields that type reads.
Coordinates are canvas pixels. Ids come from get_document or from the result
of the operation that created the object.

| type | fields |
|---|---|
| element.create | element (id optional), frameId |
| element.update | id, patch (content, fontSize, strokeColor, fillColor, name, semanticTag, visible, ...) |
| element.move | ids, dx, dy |
| element.resize | id, rect {x, y, width, height} |
| element.delete | ids |
| element.rotate | id (container), rotation (radians) |
| element.lock | ids, locked |
| element.front | ids |
| element.back | ids |
| selection.set | ids |
| group.create | ids (two or more ungrouped elements of one frame) |
| group.ungroup | id |
| group.move | id, dx, dy |
| group.delete | id |
| componentGroup.create | ids, componentType |
| template.instantiate | template, x, y |
| component.promote | id (group), name |
| component.place | id (component), frameId, x, y |
| component.override | id (instance), elementId, property, value (omit to clear) |
| component.delete | id, mode (cascade or flatten) |
| component.update | id (component), elementId, property, value |
| component.rename | id, name |
| instance.move | id, dx, dy |
| instance.delete | id |
| frame.create | name, frameType (page, modal, flyout) |
| frame.rename | id, name |
| frame.delete | id |
| frame.activate | id |
| frame.notes | id, notes |
| frame.annotate | id, elementId, notes (empty clears) |
| history.undo | |
| history.redo | |

Locked elements cannot be moved, resized, rotated, edited or deleted.
The last frame cannot be deleted.

## Example

` + "```" + `json
{"type": "element.create", "element": {"type": "rectangle", "x": 40, "y": 40, "width": 160, "height": 48}}
` + "```" + `

The result carries the new id and the document revision:

` + "```" + `json
{"id": "el_01h...", "revision": 7}
` + "```" + `
`

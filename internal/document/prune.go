package document

import "slices"

// PruneReport counts what PruneOrphans removed.
type PruneReport struct {
	OrphanedInstances int `json:"orphanedInstances"`
	DanglingRefs      int `json:"danglingRefs"`
}

// PruneOrphans repairs a freshly loaded state so every id reference resolves:
// instances of missing components are dropped, group and container
// references to missing elements are removed, groups that become too small
// are dissolved, derived geometry is recomputed and at least one frame exists.
func PruneOrphans(s *DocumentState, m Measurer) PruneReport {
	var report PruneReport

	if len(s.Frames) == 0 {
		s.Frames = []Frame{NewFrame("Page 1", FrameTypePage)}
	}
	if s.Version == 0 {
		s.Version = SchemaVersion
	}

	frames := make(map[string]bool, len(s.Frames))
	owner := make(map[string]string)
	for _, f := range s.Frames {
		frames[f.ID] = true
		for _, el := range f.Elements {
			owner[el.ID] = f.ID
		}
	}

	components := make(map[string]bool, len(s.UserComponents))
	for _, c := range s.UserComponents {
		components[c.ID] = true
	}
	kept := s.ComponentInstances[:0]
	for _, inst := range s.ComponentInstances {
		switch {
		case !components[inst.ComponentID]:
			report.OrphanedInstances++
		case !frames[inst.FrameID]:
			report.DanglingRefs++
		default:
			kept = append(kept, inst)
		}
	}
	s.ComponentInstances = kept

	componentGroup := make(map[string]string)
	cgroups := s.ComponentGroups[:0]
	for _, g := range s.ComponentGroups {
		ids := g.ElementIDs[:0]
		for _, id := range g.ElementIDs {
			if _, ok := owner[id]; ok && componentGroup[id] == "" {
				ids = append(ids, id)
				componentGroup[id] = g.ID
			} else {
				report.DanglingRefs++
			}
		}
		g.ElementIDs = ids
		if len(ids) == 0 {
			report.DanglingRefs++
			continue
		}
		cgroups = append(cgroups, g)
	}
	s.ComponentGroups = cgroups

	elementGroup := make(map[string]string)
	egroups := s.ElementGroups[:0]
	for _, g := range s.ElementGroups {
		ids := make([]string, 0, len(g.ElementIDs))
		for _, id := range g.ElementIDs {
			if owner[id] == g.FrameID && componentGroup[id] == "" && elementGroup[id] == "" {
				ids = append(ids, id)
			} else {
				report.DanglingRefs++
			}
		}
		if len(ids) < 2 {
			report.DanglingRefs++
			continue
		}
		for _, id := range ids {
			elementGroup[id] = g.ID
		}
		g.ElementIDs = ids
		egroups = append(egroups, g)
	}
	s.ElementGroups = egroups

	for fi := range s.Frames {
		f := &s.Frames[fi]
		if f.Elements == nil {
			f.Elements = []Element{}
		}
		for ei := range f.Elements {
			el := &f.Elements[ei]
			if el.GroupID != componentGroup[el.ID] || el.ElementGroupID != elementGroup[el.ID] {
				report.DanglingRefs++
				el.GroupID = componentGroup[el.ID]
				el.ElementGroupID = elementGroup[el.ID]
			}
			if el.IsBoundText() && owner[el.Text.ContainerID] != f.ID {
				report.DanglingRefs++
				el.Text.ContainerID = ""
			}
			if len(el.BoundElements) > 0 {
				before := len(el.BoundElements)
				el.BoundElements = slices.DeleteFunc(el.BoundElements, func(id string) bool {
					return owner[id] != f.ID
				})
				report.DanglingRefs += before - len(el.BoundElements)
			}
			Normalize(el, m)
		}
		syncFrameBoundText(f, m)
	}

	if !frames[s.ActiveFrameID] {
		s.ActiveFrameID = s.Frames[0].ID
	}
	return report
}

// syncFrameBoundText re-derives every bound text box in a frame from its container.
func syncFrameBoundText(f *Frame, m Measurer) {
	index := make(map[string]int, len(f.Elements))
	for i := range f.Elements {
		index[f.Elements[i].ID] = i
	}
	for i := range f.Elements {
		el := &f.Elements[i]
		if !el.IsBoundText() {
			continue
		}
		ci, ok := index[el.Text.ContainerID]
		if !ok {
			continue
		}
		container := &f.Elements[ci]
		if !slices.Contains(container.BoundElements, el.ID) {
			container.BoundElements = append(container.BoundElements, el.ID)
		}
		SyncBoundText(container, el, m)
	}
}

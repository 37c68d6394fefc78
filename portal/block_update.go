package portal

// HandleBlockUpdate implements spec.md §4.K's block-update event: a portal
// block changing re-detects and re-indexes its containing key; any other
// block change that falls inside a previously-registered portal's
// footprint is checked for removal once the frame no longer validates.
func (r *Router) HandleBlockUpdate(world Instance, dimensionID string, pos BlockPos) {
	if world.IsPortalBlock(pos) {
		if k, ok := Detect(world, dimensionID, pos); ok {
			r.index.Insert(k)
		}
		return
	}

	existing, ok := r.index.ContainingChunk(dimensionID, pos.X, pos.Y, pos.Z)
	if !ok {
		return
	}
	if portalStillExists(world, existing) {
		return
	}
	r.index.Remove(existing)
	r.registry.RemoveLink(existing)
	r.registry.Save()
}

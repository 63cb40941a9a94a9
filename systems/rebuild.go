package systems

// RebuildRequest asks for derived fields to be recomputed from the tile world.
type RebuildRequest struct {
	Collision bool
	Lighting  bool
}

// Any reports whether anything needs rebuilding.
func (r RebuildRequest) Any() bool {
	return r.Collision || r.Lighting
}

// Merge combines two requests; a field is rebuilt if either asks for it.
func (r RebuildRequest) Merge(o RebuildRequest) RebuildRequest {
	return RebuildRequest{
		Collision: r.Collision || o.Collision,
		Lighting:  r.Lighting || o.Lighting,
	}
}

// PendingRebuilds accumulates requests raised during a tick so each field is
// rebuilt at most once.
type PendingRebuilds struct {
	req RebuildRequest
}

// Request merges r into the pending request.
func (p *PendingRebuilds) Request(r RebuildRequest) {
	p.req = p.req.Merge(r)
}

// Peek returns the pending request without clearing it.
func (p *PendingRebuilds) Peek() RebuildRequest {
	return p.req
}

// Take returns the pending request and clears it.
func (p *PendingRebuilds) Take() RebuildRequest {
	r := p.req
	p.req = RebuildRequest{}
	return r
}

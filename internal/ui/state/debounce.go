package state

// Debounce decides when the related-files lookup runs. It remembers the
// path of the last lookup and whether one is in flight; a new lookup is
// issued only when none is in flight and the selection moved off the
// remembered path.
type Debounce struct {
	path    string
	hasPath bool
	loading bool
}

// Poll reports whether a lookup for selected should start now. When it
// returns true the path is remembered and the policy is marked loading
// until Complete or Reset.
func (d *Debounce) Poll(selected string) bool {
	if d.loading || selected == "" {
		return false
	}
	if d.hasPath && d.path == selected {
		return false
	}
	d.path = selected
	d.hasPath = true
	d.loading = true
	return true
}

// Complete marks the in-flight lookup as finished.
func (d *Debounce) Complete() {
	d.loading = false
}

// Loading reports whether a lookup is in flight.
func (d *Debounce) Loading() bool {
	return d.loading
}

// Matches reports whether path is the remembered one.
func (d *Debounce) Matches(path string) bool {
	return d.hasPath && d.path == path
}

// Reset forgets the remembered path and any in-flight lookup.
func (d *Debounce) Reset() {
	*d = Debounce{}
}

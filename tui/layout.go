package tui

type targetKind int

const (
	targetNone targetKind = iota
	targetPad
	targetPower
	targetVolumeUp
	targetVolumeDown
)

// target is something the pointer can press
type target struct {
	kind targetKind
	key  string // pad trigger key
}

type region struct {
	x, y, w, h int
	target     target
}

func (r region) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// layoutBounds holds clickable regions from the last View, in screen cells
type layoutBounds struct {
	regions []region
}

func (b *layoutBounds) reset() {
	b.regions = b.regions[:0]
}

func (b *layoutBounds) add(r region) {
	b.regions = append(b.regions, r)
}

// addAll offsets regions by dx, dy before adding them
func (b *layoutBounds) addAll(regions []region, dx, dy int) {
	for _, r := range regions {
		r.x += dx
		r.y += dy
		b.add(r)
	}
}

func (m Model) hitTest(x, y int) (target, bool) {
	for _, r := range m.bounds.regions {
		if r.contains(x, y) {
			return r.target, true
		}
	}
	return target{}, false
}

package domain

// MediaKind is a class of media a collection accepts.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// CollectionDefinition describes one ordered collection known to the service.
type CollectionDefinition struct {
	Name   string      `json:"name" yaml:"name"`
	Label  string      `json:"label" yaml:"label"`
	Media  []MediaKind `json:"media" yaml:"media"`
	Public bool        `json:"public" yaml:"public"`
}

// Accepts reports whether the collection takes media of the given kind.
func (d CollectionDefinition) Accepts(kind MediaKind) bool {
	for _, k := range d.Media {
		if k == kind {
			return true
		}
	}
	return false
}

// Catalog is the ordered list of known collections.
type Catalog []CollectionDefinition

// Lookup finds a definition by name.
func (c Catalog) Lookup(name string) (CollectionDefinition, bool) {
	for _, def := range c {
		if def.Name == name {
			return def, true
		}
	}
	return CollectionDefinition{}, false
}

// Names lists the collection names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, def := range c {
		names = append(names, def.Name)
	}
	return names
}

// DefaultCatalog is the studio's standard set of collections.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "hero_banners", Label: "Hero Banners", Media: []MediaKind{MediaImage, MediaVideo}, Public: true},
		{Name: "stills", Label: "Stills", Media: []MediaKind{MediaImage}, Public: true},
		{Name: "motions", Label: "Motions", Media: []MediaKind{MediaVideo, MediaImage}, Public: true},
		{Name: "clients", Label: "Clients", Media: []MediaKind{MediaImage}, Public: true},
		{Name: "locations", Label: "Locations", Media: []MediaKind{MediaImage}, Public: true},
	}
}

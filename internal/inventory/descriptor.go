package inventory

// Unit is a plain Module used by backends that have nothing richer to offer.
type Unit struct {
	Identifier string `json:"id"`
	Version    string `json:"version,omitempty"`
}

// NewUnit creates a Unit with the given identifier.
func NewUnit(id string) *Unit {
	return &Unit{Identifier: id}
}

// ID implements Module.
func (u *Unit) ID() string { return u.Identifier }

// ModuleVersion implements Versioned.
func (u *Unit) ModuleVersion() string { return u.Version }

func (u *Unit) String() string {
	if u.Version == "" {
		return u.Identifier
	}
	return u.Identifier + "@" + u.Version
}

// Descriptor is a plain Type carrying the fields every backend can fill in.
type Descriptor struct {
	Simple    string `json:"name"`
	Qualified string `json:"qualifiedName,omitempty"`
	Category  string `json:"kind,omitempty"`
	Module    string `json:"module,omitempty"`
}

// Name implements Type.
func (d *Descriptor) Name() string { return d.Simple }

// QualifiedName implements Qualified.
func (d *Descriptor) QualifiedName() string { return d.Qualified }

// Kind implements Kinded.
func (d *Descriptor) Kind() string { return d.Category }

func (d *Descriptor) String() string {
	if d.Qualified != "" {
		return d.Qualified
	}
	return d.Simple
}

package table

import (
	"errors"

	"github.com/calmh/xdr"
)

// Hand-written rather than generated because rows are a tagged union
// (dense or diff) and genxdr has no notion of those.

// ErrBadVersion is returned when unmarshalling a program serialized at a
// different format version.
var ErrBadVersion = errors.New("unknown table format version")

const (
	maxConds = 1 << 10
	maxRows  = 1 << 24
	maxRules = 1 << 20
	maxName  = 1 << 10
)

func (a Accept) XDRSize() int {
	return 12
}

func (a Accept) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint32(uint32(a.Rule))
	m.MarshalUint8(a.Cut)
	m.MarshalUint32(uint32(a.CutLen))
	return m.Error
}

func (a *Accept) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	a.Rule = int32(u.UnmarshalUint32())
	a.Cut = u.UnmarshalUint8()
	a.CutLen = int32(u.UnmarshalUint32())
	return u.Error
}

func (r RuleInfo) XDRSize() int {
	return 8
}

func (r RuleInfo) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint32(r.Action)
	m.MarshalBool(r.HasTrail)
	return m.Error
}

func (r *RuleInfo) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	r.Action = u.UnmarshalUint32()
	r.HasTrail = u.UnmarshalBool()
	return u.Error
}

func (r Row) XDRSize() int {
	if r.Dense != nil {
		return 4 + 4 + 4*len(r.Dense)
	}
	return 4 + 4 + 4 + 8*len(r.Except)
}

func (r Row) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalBool(r.Dense != nil)
	if r.Dense != nil {
		m.MarshalUint32(uint32(len(r.Dense)))
		for _, next := range r.Dense {
			m.MarshalUint32(next)
		}
		return m.Error
	}
	m.MarshalUint32(r.Default)
	m.MarshalUint32(uint32(len(r.Except)))
	for _, ex := range r.Except {
		m.MarshalUint8(ex.Class)
		m.MarshalUint32(ex.Next)
	}
	return m.Error
}

func (r *Row) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	if u.UnmarshalBool() {
		l := int(u.UnmarshalUint32())
		if l > 256 {
			return xdr.ElementSizeExceeded("dense row", l, 256)
		}
		r.Dense = make([]uint32, l)
		for i := range r.Dense {
			r.Dense[i] = u.UnmarshalUint32()
		}
		r.Default = 0
		r.Except = nil
		return u.Error
	}
	r.Dense = nil
	r.Default = u.UnmarshalUint32()
	l := int(u.UnmarshalUint32())
	if l > 256 {
		return xdr.ElementSizeExceeded("exception list", l, 256)
	}
	r.Except = make([]Except, l)
	for i := range r.Except {
		r.Except[i].Class = u.UnmarshalUint8()
		r.Except[i].Next = u.UnmarshalUint32()
	}
	return u.Error
}

func (c Cond) XDRSize() int {
	s := 4 + len(c.Name) + xdr.Padding(len(c.Name)) // Name
	s += 4                                          // Exclusive
	s += 4 + 256                                    // Classes
	s += 4 + 4 + 4                                  // NumClasses, Start, StartBOL
	s += 4
	for i := range c.Rows {
		s += c.Rows[i].XDRSize()
	}
	s += 4 + 12*len(c.Accepts)
	return s
}

func (c Cond) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalString(c.Name)
	m.MarshalBool(c.Exclusive)
	m.MarshalBytes(c.Classes[:])
	m.MarshalUint32(c.NumClasses)
	m.MarshalUint32(c.Start)
	m.MarshalUint32(c.StartBOL)
	m.MarshalUint32(uint32(len(c.Rows)))
	for i := range c.Rows {
		if err := c.Rows[i].MarshalXDRInto(m); err != nil {
			return err
		}
	}
	m.MarshalUint32(uint32(len(c.Accepts)))
	for i := range c.Accepts {
		if err := c.Accepts[i].MarshalXDRInto(m); err != nil {
			return err
		}
	}
	return m.Error
}

func (c *Cond) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	c.Name = u.UnmarshalStringMax(maxName)
	c.Exclusive = u.UnmarshalBool()
	classes := u.UnmarshalBytesMax(256)
	if u.Error != nil {
		return u.Error
	}
	if len(classes) != 256 {
		return xdr.ElementSizeExceeded("class table", len(classes), 256)
	}
	copy(c.Classes[:], classes)
	c.NumClasses = u.UnmarshalUint32()
	c.Start = u.UnmarshalUint32()
	c.StartBOL = u.UnmarshalUint32()
	l := int(u.UnmarshalUint32())
	if l > maxRows {
		return xdr.ElementSizeExceeded("row count", l, maxRows)
	}
	c.Rows = make([]Row, l)
	for i := range c.Rows {
		if err := c.Rows[i].UnmarshalXDRFrom(u); err != nil {
			return err
		}
	}
	l = int(u.UnmarshalUint32())
	if l > maxRows {
		return xdr.ElementSizeExceeded("accept count", l, maxRows)
	}
	c.Accepts = make([]Accept, l)
	for i := range c.Accepts {
		if err := c.Accepts[i].UnmarshalXDRFrom(u); err != nil {
			return err
		}
	}
	return u.Error
}

func (p Program) XDRSize() int {
	s := 4      // Version
	s += 4 + 8*len(p.Rules)
	s += 4
	for i := range p.Conds {
		s += p.Conds[i].XDRSize()
	}
	return s
}

func (p Program) MarshalXDR() ([]byte, error) {
	buf := make([]byte, p.XDRSize())
	m := &xdr.Marshaller{Data: buf}
	err := p.MarshalXDRInto(m)
	return buf, err
}

func (p Program) MustMarshalXDR() []byte {
	bs, err := p.MarshalXDR()
	if err != nil {
		panic(err)
	}
	return bs
}

func (p Program) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint32(p.Version)
	m.MarshalUint32(uint32(len(p.Rules)))
	for i := range p.Rules {
		if err := p.Rules[i].MarshalXDRInto(m); err != nil {
			return err
		}
	}
	m.MarshalUint32(uint32(len(p.Conds)))
	for i := range p.Conds {
		if err := p.Conds[i].MarshalXDRInto(m); err != nil {
			return err
		}
	}
	return m.Error
}

func (p *Program) UnmarshalXDR(bs []byte) error {
	u := &xdr.Unmarshaller{Data: bs}
	return p.UnmarshalXDRFrom(u)
}

func (p *Program) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	p.Version = u.UnmarshalUint32()
	if u.Error != nil {
		return u.Error
	}
	if p.Version != FormatVersion {
		return ErrBadVersion
	}
	l := int(u.UnmarshalUint32())
	if l > maxRules {
		return xdr.ElementSizeExceeded("rule count", l, maxRules)
	}
	p.Rules = make([]RuleInfo, l)
	for i := range p.Rules {
		if err := p.Rules[i].UnmarshalXDRFrom(u); err != nil {
			return err
		}
	}
	l = int(u.UnmarshalUint32())
	if l > maxConds {
		return xdr.ElementSizeExceeded("condition count", l, maxConds)
	}
	p.Conds = make([]Cond, l)
	for i := range p.Conds {
		if err := p.Conds[i].UnmarshalXDRFrom(u); err != nil {
			return err
		}
	}
	return u.Error
}

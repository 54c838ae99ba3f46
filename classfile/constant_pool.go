package classfile

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

// ConstantRefInfo stands for every entry made of one or two indices that
// groom never dereferences: member refs, name-and-type, method handles and
// types, dynamic call sites, modules and packages.
type ConstantRefInfo struct {
	Kind   ConstantTag
	First  uint16
	Second uint16
}

func (c *ConstantRefInfo) Tag() ConstantTag { return c.Kind }

// ConstantPool is indexed from 1 like the class file; slot 0 of the slice
// holds entry 1. The slot after a long or double is nil.
type ConstantPool []ConstantPoolEntry

func (cp ConstantPool) entry(index uint16) ConstantPoolEntry {
	if index == 0 || int(index) > len(cp) {
		return nil
	}
	return cp[index-1]
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if e, ok := cp.entry(index).(*ConstantUtf8Info); ok {
		return e.Value
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if e, ok := cp.entry(index).(*ConstantClassInfo); ok {
		return cp.GetUtf8(e.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetString(index uint16) string {
	if e, ok := cp.entry(index).(*ConstantStringInfo); ok {
		return cp.GetUtf8(e.StringIndex)
	}
	return ""
}

func (cp ConstantPool) GetInteger(index uint16) (int32, bool) {
	e, ok := cp.entry(index).(*ConstantIntegerInfo)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

func (cp ConstantPool) GetLong(index uint16) (int64, bool) {
	e, ok := cp.entry(index).(*ConstantLongInfo)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

package object

import "github.com/kristofer/ember/pkg/value"

// Instance is a plain bytecode-defined object: a class pointer (in
// ObjHeader.Class) plus a flat field array sized to Class.TotalFields().
type Instance struct {
	value.ObjHeader
	Fields []value.Value
}

// NewInstance allocates an instance of class with every field
// initialized to null.
func NewInstance(class *Class) *Instance {
	inst := &Instance{Fields: make([]value.Value, class.TotalFields())}
	inst.Kind = value.ObjInstance
	inst.Class = class
	for i := range inst.Fields {
		inst.Fields[i] = value.Null()
	}
	return inst
}

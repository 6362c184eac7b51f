// Package extract locates directive-table literals in a comment-free token stream and parses
// every element before the sentinel into a raw entry.
package extract

import "fmt"

// Shape describes the fixed record layout of a directive table.
//
//	static ngx_command_t  name[] = {
//	    { ngx_string("directive"), BITMASK|BITMASK, opaque, opaque, opaque, opaque },
//	    ngx_null_command
//	};
type Shape struct {
	// TableType is the element type that introduces a table declaration.
	TableType string `mapstructure:"tableType" yaml:"tableType" validate:"required,cident"`
	// NameMacro wraps the quoted directive name.
	NameMacro string `mapstructure:"nameMacro" yaml:"nameMacro" validate:"required,cident"`
	// Sentinel is the bare identifier terminating the table.
	Sentinel string `mapstructure:"sentinel" yaml:"sentinel" validate:"required,cident"`
	// NullName, as the first field of a braced element, marks the expanded sentinel.
	NullName string `mapstructure:"nullName" yaml:"nullName" validate:"omitempty,cident"`
	// Fields is the number of fields of every record, name and bitmask included.
	Fields int `mapstructure:"fields" yaml:"fields" validate:"gte=2"`
}

// DefaultShape returns the nginx ngx_command_t layout.
func DefaultShape() Shape {
	return Shape{
		TableType: "ngx_command_t",
		NameMacro: "ngx_string",
		Sentinel:  "ngx_null_command",
		NullName:  "ngx_null_string",
		Fields:    6,
	}
}

func (s Shape) String() string {
	return fmt.Sprintf("%s{%s(\"...\"), bitmask, +%d}...%s", s.TableType, s.NameMacro, s.Fields-2, s.Sentinel)
}

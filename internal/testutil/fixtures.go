package testutil

import (
	"github.com/roach88/gistub/internal/reflector"
)

// CoreNamespace is a small base library: a Widget class deriving from
// GObject.Object, a duplicate Error/GError pair and a few plain entities.
func CoreNamespace() *FakeNamespace {
	return &FakeNamespace{
		Name:    "Core",
		Version: "1.0",
		Entities: []reflector.LowEntity{
			{
				Name: "Widget", Kind: "class", Identity: "0x10",
				Bases: []string{"Object"},
				Methods: []reflector.LowEntity{
					{
						Name: "show", Role: "method",
						Return: &reflector.LowReturn{Type: "none"},
					},
					{
						Name: "get_size", Role: "method",
						Params: []reflector.LowParam{
							{Name: "width", Type: "gint", Direction: "out"},
							{Name: "height", Type: "gint", Direction: "out"},
						},
						Return: &reflector.LowReturn{Type: "none"},
					},
					{
						Name: "new", Role: "constructor",
						Return: &reflector.LowReturn{Type: "Widget"},
					},
				},
				Properties: []reflector.LowProperty{
					{Name: "label", Type: "utf8", Readable: true, Writable: true, Nullable: true},
				},
				Signals: []reflector.LowSignal{
					{Name: "clicked", Return: "none"},
				},
			},
			{Name: "Object", Kind: "class", Identity: "0x01"},
			{Name: "Error", Kind: "struct", Identity: "0x20", Bases: []string{"gi.Boxed"}},
			{Name: "GError", Kind: "struct", Identity: "0x20", Bases: []string{"gi.Boxed"}},
			{
				Name: "init", Kind: "function",
				Params: []reflector.LowParam{
					{Name: "argv", Type: "array<utf8>", Nullable: true, Optional: true},
				},
				Return: &reflector.LowReturn{Type: "gboolean"},
			},
			{Name: "MAJOR_VERSION", Kind: "constant", Type: "gint", Value: "1"},
			{
				Name: "Align", Kind: "enum",
				Values: []reflector.LowValue{{Name: "START", Value: 0}, {Name: "END", Value: 1}},
			},
		},
		Warnings: map[string][]string{
			"init": {"Core.init is deprecated; use Core.setup() instead"},
		},
	}
}

// ExtNamespace preloads Core and subclasses Core.Widget.
func ExtNamespace() *FakeNamespace {
	return &FakeNamespace{
		Name:    "Ext",
		Version: "2.0",
		Entities: []reflector.LowEntity{
			{
				Name: "Fancy", Kind: "class", Identity: "0x30",
				Bases: []string{"Core.Widget"},
				Methods: []reflector.LowEntity{
					{
						Name: "sparkle", Role: "method",
						Params: []reflector.LowParam{{Name: "widget", Type: "Widget"}},
						Return: &reflector.LowReturn{Type: "Mystery"},
					},
				},
			},
		},
	}
}

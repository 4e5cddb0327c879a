// Package services holds the simulated backing services and shared helpers
// for reading loosely-typed tool arguments.
package services

// StringArg reads a string argument, empty when absent or mistyped
func StringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// StringSliceArg reads a string list argument. Arguments cross the JSON-RPC
// boundary either as live []string or as decoded []any.
func StringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Package factory provides a small generic registry used to build pluggable
// adapters, such as metrics sinks and prediction log stores, from
// configuration. A module is declared by a type string plus a map of raw
// settings that the factory decodes into its own struct.
//
//	reg := factory.NewRegistry[predictionlog.LogStore]()
//	_ = reg.Register("jsonl", func(conf map[string]any) (predictionlog.LogStore, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return predictionlog.NewJSONLStore(c.Path)
//	})
//	store, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "p.log"}})
package factory

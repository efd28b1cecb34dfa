// Package registry is the static catalog of synchronized tables.
//
// Each TableDescriptor names a source table, its target entity, the natural
// primary key, the watermark field used for incremental pulls, the tables it
// depends on and its level in the dependency order. Tables sharing a level
// have no dependency relationship and may be synchronized concurrently.
//
// The catalog is authored as YAML (see feature/legacy/catalog.yaml) and is
// validated when loaded: every dependency must exist and live on a strictly
// lower level. Level order is the scheduling contract used by the
// orchestrator.
//
// # Usage
//
//	reg, err := registry.Parse(data)
//	for _, lvl := range reg.Levels() {
//	    for _, t := range lvl.Tables {
//	        fmt.Println(lvl.Number, t.Name)
//	    }
//	}
package registry

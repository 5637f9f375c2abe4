// Package store opens the data_json table on one of several database
// backends and exposes it as a jsonload.Store.
//
// Backends register themselves from init functions. Import
// internal/store/all to enable every built-in backend, then call Open:
//
//	import _ "github.com/vvka-141/jsonload/internal/store/all"
//
//	st, err := store.Open(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
// Opening a store creates the database (where the backend supports it) and
// the data_json table if they are missing.
package store

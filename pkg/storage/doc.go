// Package storage wires a configuration into a ready to use database
// connection: it picks the dialect, opens and sizes the pool, builds the
// transactional executor and the schema applier, and verifies the
// connection.
//
//	cfg, err := config.LoadConfigFile("txkeeper.yaml")
//	if err != nil {
//		return err
//	}
//
//	s, err := storage.Open(ctx, cfg, storage.Options{Registerer: prometheus.DefaultRegisterer})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	stmts, err := s.LoadSchemaFile("")
//	if err != nil {
//		return err
//	}
//
//	applied, err := s.Applier().Apply(ctx, stmts)
package storage

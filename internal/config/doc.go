// Package config provides the service configuration model and its loading.
//
// Configuration is read from a YAML file in which ${VAR} and
// ${VAR:-default} references are replaced with environment variables
// before parsing. Values missing from the file keep their defaults.
//
//	cfg, err := config.LoadConfig("paramgw.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
package config

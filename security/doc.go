// Package security builds the TLS settings of the HTTP bridge.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "/etc/ollamacmd/cert.pem",
//	    KeyFile:      "/etc/ollamacmd/key.pem",
//	    ClientCAFile: "/etc/ollamacmd/clients.pem", // optional, enables mTLS
//	}
//	tlsConfig, err := cfg.Build()
package security

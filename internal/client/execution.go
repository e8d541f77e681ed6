package client

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

// getTransport verifies the service against sslCaFile (when provided) and
// presents the sslCrtFile/sslKeyFile pair (when both are provided)
func getTransport(sslCaFile, sslCrtFile, sslKeyFile string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if sslCaFile == "" && sslCrtFile == "" && sslKeyFile == "" {
		return transport, nil
	}
	if (sslCrtFile == "") != (sslKeyFile == "") {
		return nil, errors.New("SSL_CRT_FILE and SSL_KEY_FILE must be provided together")
	}
	//KIM: TLS versions below 1.2 are considered insecure
	// see https://www.rfc-editor.org/rfc/rfc7525.txt for details
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if sslCaFile != "" {
		bytes, err := os.ReadFile(sslCaFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read ca")
		}
		tlsConfig.RootCAs = x509.NewCertPool()
		if !tlsConfig.RootCAs.AppendCertsFromPEM(bytes) {
			return nil, errors.Errorf("no certificates found in %s", sslCaFile)
		}
	}
	if sslCrtFile != "" {
		certificate, err := tls.LoadX509KeyPair(sslCrtFile, sslKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
	}
	transport.TLSClientConfig = tlsConfig
	return transport, nil
}

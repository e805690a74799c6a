// Package config manages user-level settings stored at ~/.vixscript/vixpip.yaml.
// Every key can also be supplied through a VIXPIP_-prefixed environment
// variable, e.g. VIXPIP_INDEX_URL or VIXPIP_TIMEOUT.
package config

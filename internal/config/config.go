// Package config holds process-level configuration for both the reconciler
// and admission binaries: namespace scoping, leader-election identity, worker
// counts, webhook bind/TLS settings, and log level. It is grounded on the
// flag-plus-struct pattern in the teacher's contrib/gomaxprocs-webhook/cmd
// commands, generalized to cover both processes this operator ships.
package config

import "time"

// Operator holds the reconciler process's configuration.
type Operator struct {
	Namespace          string        `yaml:"namespace"`
	LeaderElectionID   string        `yaml:"leaderElectionId"`
	MetricsBindAddress string        `yaml:"metricsBindAddress"`
	ProbeBindAddress   string        `yaml:"probeBindAddress"`
	Workers            int           `yaml:"workers"`
	ReconcileDeadline  time.Duration `yaml:"reconcileDeadline"`
	LogDevMode         bool          `yaml:"logDevMode"`
	LogLevel           int           `yaml:"logLevel"`
}

// DefaultOperator returns the defaults the teacher's serve command also uses
// for metrics/probe bind addresses, adapted to this operator's flag names.
func DefaultOperator() Operator {
	return Operator{
		Namespace:          "",
		LeaderElectionID:   "stellar-node-operator-leader",
		MetricsBindAddress: ":8080",
		ProbeBindAddress:   ":8081",
		Workers:            4,
		ReconcileDeadline:  2 * time.Minute,
		LogDevMode:         false,
		LogLevel:           0,
	}
}

// Admission holds the admission server process's configuration.
type Admission struct {
	BindAddress    string        `yaml:"bindAddress"`
	CertFile       string        `yaml:"certFile"`
	KeyFile        string        `yaml:"keyFile"`
	WebhookTimeout time.Duration `yaml:"webhookTimeout"`
	LogDevMode     bool          `yaml:"logDevMode"`
	LogLevel       int           `yaml:"logLevel"`
}

// DefaultAdmission returns the admission server's defaults: port 8443 per the
// external interface contract, and the 10s Kubernetes webhook timeout budget.
func DefaultAdmission() Admission {
	return Admission{
		BindAddress:    ":8443",
		CertFile:       "/etc/stellar-node-operator/tls/tls.crt",
		KeyFile:        "/etc/stellar-node-operator/tls/tls.key",
		WebhookTimeout: 10 * time.Second,
		LogDevMode:     false,
		LogLevel:       0,
	}
}

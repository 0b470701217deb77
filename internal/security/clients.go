package security

// Client is a machine caller allowed to obtain tokens.
type Client struct {
	Secret  string
	Perms   []string
	Enabled bool
}

// Clients is the static client registry. Real deployments would load this
// from the config store; the shape is enough for service-to-service auth.
var Clients = map[string]Client{
	"gateway": {
		Secret:  "gateway-secret",
		Perms:   []string{"orders.read", "orders.write"},
		Enabled: true,
	},
	"reporting": {
		Secret:  "reporting-secret",
		Perms:   []string{"orders.read"},
		Enabled: true,
	},
}

package reports

// Names of the built-in reports
const (
	Sessions     = "sessions"
	Transactions = "transactions"
)

// Builtins returns the app (non-web) session and purchase reports. Each call
// returns fresh values so callers may modify them.
func Builtins() []ReportSpec {
	notWeb := func() *FilterExpression {
		return Not(Equals("platform", "web"))
	}

	return []ReportSpec{
		{
			Name:  Sessions,
			Table: "ga4.app_api_sessions",
			Dimensions: []string{
				"source",
				"medium",
				"campaignName",
				"platform",
				"city",
			},
			Metrics: []string{"sessions", "totalUsers"},
			Filter: And(
				notWeb(),
				Equals("eventName", "session_start"),
			),
			Limit: DefaultLimit,
		},
		{
			Name:  Transactions,
			Table: "ga4.app_api_transactions",
			Dimensions: []string{
				"source",
				"medium",
				"campaignName",
				"platform",
				"city",
				"customEvent:transaction_id",
			},
			Metrics: []string{},
			Filter: And(
				notWeb(),
				Contains("eventName", "purchase"),
			),
			Limit: DefaultLimit,
		},
	}
}

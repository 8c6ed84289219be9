package httptransport

import "expvar"

var (
	metricTableCreateTotal  = expvar.NewInt("table_create_total")
	metricTableCreateErrors = expvar.NewInt("table_create_errors_total")

	metricJoinTotal  = expvar.NewInt("table_join_total")
	metricJoinErrors = expvar.NewInt("table_join_errors_total")

	metricActionSubmitTotal  = expvar.NewInt("action_submit_total")
	metricActionSubmitErrors = expvar.NewInt("action_submit_errors_total")

	metricRateLimitedTotal = expvar.NewInt("rate_limited_total")

	metricSettlementTotal       = expvar.NewInt("settlement_total")
	metricSettlementErrors      = expvar.NewInt("settlement_errors_total")
	metricSettlementReplayTotal = expvar.NewInt("settlement_replay_total")
)

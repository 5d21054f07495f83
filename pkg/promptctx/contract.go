package promptctx

// antiLookaheadContract is carried verbatim and prominently in every
// scanner and executor prompt (spec.md §4.2, load-bearing). It is never
// folded into knowledge text — knowledge is mutable and this is invariant.
const antiLookaheadContract = `SEQUENTIAL DATA ACCESS CONTRACT (MANDATORY, NEVER OVERRIDDEN BY GUIDANCE OR KNOWLEDGE):
Your code must process market bars strictly sequentially, in timestamp order. You may
compute an indicator, aggregate, or statistic only over bars whose timestamp is at or
before the bar on which a signal is emitted. Never read, average, or compare against a
bar that has not "happened yet" relative to the signal you are emitting.

Forbidden pattern (do not write code like this):
  # WRONG: computes a 20-day average using data from after the signal date
  window = all_bars[signal_index - 10 : signal_index + 10]
  avg = mean(b.close for b in window)

Correct pattern:
  # RIGHT: only bars up to and including the signal's own bar are used
  window = all_bars[: signal_index + 1][-20:]
  avg = mean(b.close for b in window)`

// dataSchemaDescription is the machine-readable description of the data
// the generated code may query and the fields a signal must expose
// (spec.md §4.2).
const dataSchemaDescription = `AVAILABLE DATA:
- bars(ticker, timeframe, from, to) -> rows of {ticker, timestamp, timeframe, open, high,
  low, close, volume, time_of_day}. timeframe is one of "1min", "5min", "1day".
- daily_metrics(ticker, date) -> {ticker, date, change_percent, rsi_14, sma_20, sma_50,
  sma_200, volume_ratio, consecutive_up_days, consecutive_down_days, multi_day_change_pct_5}.
- universe_members(universe) -> list of ticker strings.
All three are read-only and exposed to your process as described in your runtime
instructions (a local file path or a localhost HTTP interface).

REQUIRED SIGNAL SHAPE:
Emit a JSON array of objects, each with at minimum:
  {"ticker": "<symbol>", "timestamp": "<ISO-8601 timestamp or date>"}
Optional fields: "side" ("long" or "short", default "long"), and any other
scanner-specific field you want carried through to analysis (e.g. "atr", "setup_reason").`

package ir

// IRVersion is the IR schema version, folded into grammar hashes and
// recorded in the compiled-grammar cache so stale entries from an older
// layout never match.
const IRVersion = "1"

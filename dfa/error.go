package dfa

import "errors"

// ErrStateLimit is returned by Determinize when subset construction
// would exceed the configured state ceiling.
var ErrStateLimit = errors.New("DFA state limit exceeded")

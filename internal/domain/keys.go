package domain

// KeyPrefix namespaces every key written to a shared store.
const KeyPrefix = "vibesearch:"

// StateKey is the persisted search state key name.
const StateKey = "vibesearch_state"

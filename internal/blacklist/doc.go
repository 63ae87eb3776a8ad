// Package blacklist remembers (item, mode) pairs that yielded no segment so
// later runs skip futile re-analysis. Entries are merged with set semantics
// and survive restarts; deleting a library item or an explicit reset clears
// them.
package blacklist

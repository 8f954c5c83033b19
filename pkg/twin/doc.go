// Package twin defines the Digital Twin profile produced by an interview,
// the persisted twin record and its stores.
package twin

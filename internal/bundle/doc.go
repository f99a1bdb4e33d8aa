// Package bundle owns the on-disk bundle cache: its layout, the persisted
// update record that activates a cached bundle, the update error taxonomy and
// the Resolver that decides which bundle the host loads at startup.
//
// The cache is an arena with at most one live slot (the recorded version) and
// one staging slot (a version being installed). Resolution never touches the
// network and never fails: any inconsistency degrades to the fallback bundle
// packaged with the host.
package bundle

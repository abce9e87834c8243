package flows

// Deps groups the per-flow dependency sets. The client facade builds this
// once and delegates each public method to the matching flow function.
type Deps struct {
	Login     LoginDeps
	Logout    LogoutDeps
	Bootstrap BootstrapDeps
}

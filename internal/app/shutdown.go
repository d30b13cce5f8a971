package app

// Close releases the exchange handle and its cache. It leaves the sidecar
// running; use Supervisor().Stop to end it.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.logger.Info("application-closing")
		a.exchange.Close()
		a.cache.Close()
	})
	return nil
}

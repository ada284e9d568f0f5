package screen

// lockScreen serializes lifecycle changes for one screen id and returns the unlock func.
func (s *Service) lockScreen(id string) func() {
	s.locks.Lock(id)
	return func() { _ = s.locks.Unlock(id) }
}

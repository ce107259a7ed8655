package patient

// fakeHasher avoids bcrypt cost in unit tests.
type fakeHasher struct{ n int }

func (f *fakeHasher) Hash(plain string) (string, error) {
	f.n++
	return "hashed:" + plain, nil
}

func (f *fakeHasher) Matches(hash, plain string) bool { return hash == "hashed:"+plain }

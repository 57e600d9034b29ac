package luapp

// Version string
const Version = "v1"

// Helper function which panics if processing failed. This is how you
// would use it:
//     out := luapp.Must(p.ProcessString("<string>", source))
func Must(out string, err error) string {
	if err != nil {
		panic(err)
	}
	return out
}

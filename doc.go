// A Lua-to-Lua preprocessor with inline metaprograms
//
// Source files mix plain Lua with metacode introduced by a '!' sigil.
// Metacode is ordinary Lua that runs at preprocess time and decides
// what ends up in the output file:
//
//	!for i = 1, 3 do
//	print("hello "..!(i))
//	!end
//
// A tiny example with in-memory processing:
//
//	p, err := luapp.NewProcessor(luapp.Options{})
//	if err != nil {
//	    panic(err)
//	}
//	defer p.Close()
//	out := luapp.Must(p.ProcessString("<string>", "local n = !(1+2)\n"))
//	fmt.Print(out) // Output: local n = 3
//
// The command-line front end lives in cmd/luapp.
package luapp

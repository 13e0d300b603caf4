// Patch functions in a running process
//
// hotpatch redirects calls to a function in the current process to another
// implementation by overwriting the function's first bytes with a jump, and
// can later put the original bytes back. It is meant for emergency fixes to
// long-running processes: load a small shared object with the fixed code,
// point the broken functions at it, and restore when a proper release ships.
//
// Patch targets are named three ways:
//
//	main.handleLogin     symbol in the executable or a loaded module
//	0x4a35d0             absolute address
//	0xaa@patch_v3.so     offset into the first executable mapping of a file
//
// The raw address forms are not validated. Writing to the wrong address
// corrupts the process.
//
// Limitations:
//   - Only supports amd64 on Linux
//   - The Engine is not safe for concurrent use
//   - A function that is executing while it is patched may crash
//   - Inlined functions are not affected
//   - Patched code pages are left writable unless WithTransientProtection is used
package hotpatch

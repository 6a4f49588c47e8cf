// Package manifest describes the library artifacts an instance needs before
// the game can start.
//
// A manifest is an ordered list of entries, each pairing a remote URL with a
// path relative to the instance libraries directory. Manifests are declared
// as Lua tables and evaluated in a sandboxed VM with a read-only platform
// table, so platform-specific entries can be selected without code changes:
//
//	manifest = {
//	    name = "forge-1.12.2",
//	    critical = { "net/minecraft/launchwrapper/" },
//	    libraries = {
//	        "net.minecraft:launchwrapper:1.12",
//	        { name = "org.lwjgl.lwjgl:lwjgl-platform:2.9.4-nightly-20150209", natives = true },
//	        platform.when(platform.is_macos, "ca.weblite:java-objc-bridge:1.0.0"),
//	    },
//	}
//
// Library names are Maven coordinates and map onto the grouped repository
// layout group/path/artifact/version/artifact-version[-classifier].jar.
// Native entries carry the ${natives} placeholder until Resolve substitutes
// the platform classifier.
package manifest

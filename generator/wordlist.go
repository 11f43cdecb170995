package generator

// wordlist backs passphrase generation: short, common, memorable words.
// 288 entries give log2(288) = just over 8 bits per word.
var wordlist = []string{
	"acid", "acorn", "acre", "alarm", "album", "alert", "alias", "alpine",
	"amber", "anchor", "angel", "anvil", "apple", "arch", "arena", "armor",
	"arrow", "atlas", "atom", "audio", "aurora", "autumn", "avid", "badge",
	"baker", "bamboo", "banner", "barrel", "basin", "beacon", "beast", "berry",
	"blade", "blank", "blast", "blaze", "bloom", "board", "bolt", "bonus",
	"brave", "breeze", "brick", "bridge", "brisk", "bronze", "brush", "bucket",
	"cabin", "cable", "camel", "candy", "canyon", "carbon", "cargo", "castle",
	"cedar", "chain", "chalk", "charm", "chess", "chief", "cider", "cipher",
	"claim", "cliff", "clock", "cloud", "clover", "cobra", "comet", "coral",
	"craft", "crane", "creek", "crest", "crown", "crush", "crystal", "cycle",
	"dagger", "dance", "dawn", "delta", "demon", "depth", "desert", "diamond",
	"digit", "diver", "dodge", "donor", "dragon", "dream", "drift", "drum",
	"eagle", "earth", "echo", "edge", "elder", "ember", "empire", "energy",
	"engine", "epoch", "equip", "exile", "fable", "factor", "falcon", "feast",
	"fiber", "field", "flame", "flash", "fleet", "flint", "flood", "focus",
	"forest", "forge", "fossil", "frost", "fruit", "fury", "galaxy", "garden",
	"garnet", "ghost", "giant", "glacier", "globe", "glory", "goblin", "grain",
	"grape", "gravel", "grove", "guard", "guide", "gypsum", "hammer", "harbor",
	"hawk", "hazard", "heart", "helix", "heron", "honey", "horizon", "hunter",
	"iceberg", "idol", "impact", "index", "inlet", "iron", "island", "ivory",
	"jacket", "jade", "jaguar", "jewel", "joint", "jungle", "karma", "kayak",
	"kernel", "kettle", "knight", "lantern", "latch", "launch", "lemon", "level",
	"light", "linen", "lion", "lunar", "magnet", "manor", "maple", "marble",
	"market", "mason", "meadow", "medal", "melody", "mentor", "meteor", "mirth",
	"moat", "monk", "mosaic", "mural", "needle", "nexus", "noble", "nomad",
	"north", "novel", "oasis", "ocean", "olive", "onyx", "opera", "orbit",
	"orchid", "osprey", "oxide", "palace", "panel", "parrot", "patrol", "pearl",
	"pepper", "piano", "pilot", "pixel", "plaza", "plume", "polar", "portal",
	"prism", "pulse", "quartz", "quest", "radar", "raven", "realm", "ridge",
	"river", "robin", "rocket", "ruby", "saddle", "sage", "salmon", "scout",
	"shadow", "shield", "signal", "silver", "solar", "spark", "sphinx", "spiral",
	"steam", "storm", "summit", "sword", "table", "talon", "temple", "terra",
	"thorn", "throne", "tiger", "timber", "torch", "tower", "trail", "trident",
	"trophy", "tunnel", "ultra", "umbra", "unity", "valve", "vault", "venom",
	"vigor", "violet", "vivid", "vortex", "voyage", "walnut", "warden", "water",
	"whale", "willow", "winter", "wizard", "wolf", "zenith", "zephyr", "zinc",
}

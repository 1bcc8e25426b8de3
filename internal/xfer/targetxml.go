// Package xfer composes the documents served by the `qXfer` family of
// queries: the static target-description XML, and the dynamically
// generated osdata/threads/libraries documents that share one annex
// scratch buffer across a client's chunked reads.
package xfer

// The leading "l" byte on each document is baked into the constant
// itself rather than computed per-chunk: qXferFeaturesRead slices these
// directly by offset/length and never recomputes the GDB qXfer
// completion marker, so a document that needs more than one chunk would
// require splitting this the way the annex-buffer documents do.

const TargetXMLAarch64 = "l<?xml version=\"1.0\"?>" +
	"<!DOCTYPE target SYSTEM \"gdb-target.dtd\">" +
	"<target>" +
	"<architecture>aarch64</architecture>" +
	"<xi:include href=\"aarch64-core.xml\"/>" +
	"<xi:include href=\"aarch64-fpu.xml\"/>" +
	"</target>"

const TargetXMLAarch32 = "l<?xml version=\"1.0\"?>" +
	"<!DOCTYPE target SYSTEM \"gdb-target.dtd\">" +
	"<target>" +
	"<xi:include href=\"arm-core.xml\"/>" +
	"<xi:include href=\"arm-vfp.xml\"/>" +
	"</target>"

const Aarch64CoreXML = "l<?xml version=\"1.0\"?>\n" +
	"<!DOCTYPE feature SYSTEM \"gdb-target.dtd\">\n" +
	"<feature name=\"org.gnu.gdb.aarch64.core\">\n" +
	"\t<reg name=\"x0\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x1\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x2\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x3\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x4\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x5\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x6\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x7\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x8\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x9\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x10\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x11\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x12\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x13\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x14\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x15\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x16\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x17\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x18\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x19\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x20\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x21\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x22\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x23\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x24\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x25\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x26\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x27\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x28\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x29\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"x30\" bitsize=\"64\"/>\n" +
	"\t<reg name=\"sp\" bitsize=\"64\" type=\"data_ptr\"/>\n" +
	"\t<reg name=\"pc\" bitsize=\"64\" type=\"code_ptr\"/>\n" +
	"\t<flags id=\"cpsr_flags\" size=\"4\">\n" +
	"\t\t<field name=\"SP\" start=\"0\" end=\"0\" />\n" +
	"\t\t<field name=\"EL\" start=\"2\" end=\"3\" />\n" +
	"\t\t<field name=\"nRW\" start=\"4\" end=\"4\" />\n" +
	"\t\t<field name=\"F\" start=\"6\" end=\"6\" />\n" +
	"\t\t<field name=\"I\" start=\"7\" end=\"7\" />\n" +
	"\t\t<field name=\"A\" start=\"8\" end=\"8\" />\n" +
	"\t\t<field name=\"D\" start=\"9\" end=\"9\" />\n" +
	"\t\t<field name=\"SSBS\" start=\"12\" end=\"12\"/>\n" +
	"\t\t<field name=\"IL\" start=\"20\" end=\"20\"/>\n" +
	"\t\t<field name=\"SS\" start=\"21\" end=\"21\"/>\n" +
	"\t\t<field name=\"PAN\" start=\"22\" end=\"22\"/>\n" +
	"\t\t<field name=\"UAO\" start=\"23\" end=\"23\"/>\n" +
	"\t\t<field name=\"DIT\" start=\"24\" end=\"24\"/>\n" +
	"\t\t<field name=\"TCO\" start=\"25\" end=\"25\"/>\n" +
	"\t\t<field name=\"V\" start=\"28\" end=\"28\"/>\n" +
	"\t\t<field name=\"C\" start=\"29\" end=\"29\"/>\n" +
	"\t\t<field name=\"Z\" start=\"30\" end=\"30\"/>\n" +
	"\t\t<field name=\"N\" start=\"31\" end=\"31\"/>\n" +
	"\t</flags>\n" +
	"\t<reg name=\"cpsr\" bitsize=\"32\" type=\"cpsr_flags\"/>\n" +
	"</feature>"

const Aarch64FpuXML = "l<?xml version=\"1.0\"?>\n" +
	"<!DOCTYPE feature SYSTEM \"gdb-target.dtd\">\n" +
	"<feature name=\"org.gnu.gdb.aarch64.fpu\">\n" +
	"\t<vector id=\"v2d\" type=\"ieee_double\" count=\"2\"/>\n" +
	"\t<vector id=\"v2u\" type=\"uint64\" count=\"2\"/>\n" +
	"\t<vector id=\"v2i\" type=\"int64\" count=\"2\"/>\n" +
	"\t<vector id=\"v4f\" type=\"ieee_single\" count=\"4\"/>\n" +
	"\t<vector id=\"v4u\" type=\"uint32\" count=\"4\"/>\n" +
	"\t<vector id=\"v4i\" type=\"int32\" count=\"4\"/>\n" +
	"\t<vector id=\"v8u\" type=\"uint16\" count=\"8\"/>\n" +
	"\t<vector id=\"v8i\" type=\"int16\" count=\"8\"/>\n" +
	"\t<vector id=\"v16u\" type=\"uint8\" count=\"16\"/>\n" +
	"\t<vector id=\"v16i\" type=\"int8\" count=\"16\"/>\n" +
	"\t<vector id=\"v1u\" type=\"uint128\" count=\"1\"/>\n" +
	"\t<vector id=\"v1i\" type=\"int128\" count=\"1\"/>\n" +
	"\t<union id=\"vnd\">\n" +
	"\t\t<field name=\"f\" type=\"v2d\"/>\n" +
	"\t\t<field name=\"u\" type=\"v2u\"/>\n" +
	"\t\t<field name=\"s\" type=\"v2i\"/>\n" +
	"\t</union>\n" +
	"\t<union id=\"vns\">\n" +
	"\t\t<field name=\"f\" type=\"v4f\"/>\n" +
	"\t\t<field name=\"u\" type=\"v4u\"/>\n" +
	"\t\t<field name=\"s\" type=\"v4i\"/>\n" +
	"\t</union>\n" +
	"\t<union id=\"vnh\">\n" +
	"\t\t<field name=\"u\" type=\"v8u\"/>\n" +
	"\t\t<field name=\"s\" type=\"v8i\"/>\n" +
	"\t</union>\n" +
	"\t<union id=\"vnb\">\n" +
	"\t\t<field name=\"u\" type=\"v16u\"/>\n" +
	"\t\t<field name=\"s\" type=\"v16i\"/>\n" +
	"\t</union>\n" +
	"\t<union id=\"vnq\">\n" +
	"\t\t<field name=\"u\" type=\"v1u\"/>\n" +
	"\t\t<field name=\"s\" type=\"v1i\"/>\n" +
	"\t</union>\n" +
	"\t<union id=\"aarch64v\">\n" +
	"\t\t<field name=\"d\" type=\"vnd\"/>\n" +
	"\t\t<field name=\"s\" type=\"vns\"/>\n" +
	"\t\t<field name=\"h\" type=\"vnh\"/>\n" +
	"\t\t<field name=\"b\" type=\"vnb\"/>\n" +
	"\t\t<field name=\"q\" type=\"vnq\"/>\n" +
	"\t</union>\n" +
	"\t<reg name=\"v0\" bitsize=\"128\" type=\"aarch64v\" regnum=\"34\"/>\n" +
	"\t<reg name=\"v1\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v2\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v3\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v4\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v5\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v6\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v7\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v8\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v9\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v10\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v11\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v12\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v13\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v14\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v15\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v16\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v17\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v18\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v19\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v20\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v21\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v22\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v23\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v24\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v25\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v26\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v27\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v28\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v29\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v30\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"v31\" bitsize=\"128\" type=\"aarch64v\"/>\n" +
	"\t<reg name=\"fpsr\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"fpcr\" bitsize=\"32\"/>\n" +
	"</feature>"

const ArmCoreXML = "l<?xml version=\"1.0\"?>\n" +
	"<!DOCTYPE target SYSTEM \"gdb-target.dtd\">\n" +
	"<feature name=\"org.gnu.gdb.arm.core\">\n" +
	"\t<reg name=\"r0\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r1\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r2\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r3\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r4\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r5\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r6\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r7\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r8\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r9\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r10\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r11\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"r12\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"sp\" bitsize=\"32\" type=\"data_ptr\"/>\n" +
	"\t<reg name=\"lr\" bitsize=\"32\"/>\n" +
	"\t<reg name=\"pc\" bitsize=\"32\" type=\"code_ptr\"/>\n" +
	"\t<reg name=\"cpsr\" bitsize=\"32\" regnum=\"25\"/>\n" +
	"</feature>\n"

const ArmVfpXML = "l<?xml version=\"1.0\"?>\n" +
	"<!DOCTYPE target SYSTEM \"gdb-target.dtd\">\n" +
	"<feature name=\"org.gnu.gdb.arm.vfp\">\n" +
	"\t<reg name=\"d0\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d1\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d2\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d3\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d4\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d5\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d6\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d7\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d8\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d9\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d10\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d11\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d12\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d13\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d14\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d15\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d16\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d17\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d18\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d19\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d20\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d21\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d22\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d23\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d24\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d25\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d26\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d27\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d28\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d29\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d30\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"d31\" bitsize=\"64\" type=\"ieee_double\"/>\n" +
	"\t<reg name=\"fpscr\" bitsize=\"32\" type=\"int\" group=\"float\"/>\n" +
	"</feature>\n"

// FeatureDocument returns the target.xml or feature-xml document named
// by path for the given execution mode, mirroring qXferFeaturesRead's
// ParsePrefix chain.
func FeatureDocument(path string, is64Bit bool) (string, bool) {
	switch path {
	case "target.xml":
		if is64Bit {
			return TargetXMLAarch64, true
		}
		return TargetXMLAarch32, true
	case "aarch64-core.xml":
		return Aarch64CoreXML, true
	case "aarch64-fpu.xml":
		return Aarch64FpuXML, true
	case "arm-core.xml":
		return ArmCoreXML, true
	case "arm-vfp.xml":
		return ArmVfpXML, true
	default:
		return "", false
	}
}

package harness

import "github.com/mini-maxit/executor/pkg/solution"

var javaTypes = map[solution.ValueType]string{
	solution.TypeInt:          "int",
	solution.TypeLong:         "long",
	solution.TypeDouble:       "double",
	solution.TypeBool:         "boolean",
	solution.TypeString:       "String",
	solution.TypeIntArray:     "int[]",
	solution.TypeLongArray:    "long[]",
	solution.TypeDoubleArray:  "double[]",
	solution.TypeBoolArray:    "boolean[]",
	solution.TypeStringArray:  "String[]",
	solution.TypeIntMatrix:    "int[][]",
	solution.TypeStringMatrix: "String[][]",
}

const javaDriver = `import java.util.*;

{{.Code}}

public class Main {
    public static void main(String[] argv) throws Exception {
        java.io.BufferedReader in = new java.io.BufferedReader(
            new java.io.InputStreamReader(System.in, java.nio.charset.StandardCharsets.UTF_8));
        List<String> lines = new ArrayList<>();
        for (String line = in.readLine(); line != null; line = in.readLine()) {
            if (!line.trim().isEmpty()) {
                lines.add(line);
            }
        }
{{range $i, $p := .EntryPoint.Params}}
        {{javaType $p.Type}} a{{$i}} = {{conv $p.Type}}(arg(lines, {{$i}}));
{{- end}}

        Object result = new Solution().{{.EntryPoint.Name}}({{args .EntryPoint.Params}});
        StringBuilder out = new StringBuilder();
        write(out, result);
        System.out.println(out);
    }

    static Object arg(List<String> lines, int k) {
        if (k >= lines.size()) {
            throw new IllegalArgumentException("missing argument " + k);
        }
        return new Parser(lines.get(k)).parse();
    }

    static final class Parser {
        private final String s;
        private int i;

        Parser(String s) {
            this.s = s;
        }

        Object parse() {
            Object v = value();
            skip();
            if (i != s.length()) {
                throw new IllegalArgumentException("trailing characters in " + s);
            }
            return v;
        }

        private void skip() {
            while (i < s.length() && Character.isWhitespace(s.charAt(i))) {
                i++;
            }
        }

        private Object value() {
            skip();
            if (i >= s.length()) {
                throw new IllegalArgumentException("unexpected end of input");
            }
            char c = s.charAt(i);
            if (c == '[') {
                i++;
                List<Object> items = new ArrayList<>();
                skip();
                if (i < s.length() && s.charAt(i) == ']') {
                    i++;
                    return items;
                }
                while (true) {
                    items.add(value());
                    skip();
                    if (i >= s.length()) {
                        throw new IllegalArgumentException("unterminated array");
                    }
                    char d = s.charAt(i++);
                    if (d == ']') {
                        return items;
                    }
                    if (d != ',') {
                        throw new IllegalArgumentException("expected , or ] at " + (i - 1));
                    }
                }
            }
            if (c == '"' || c == '\'') {
                return string(c);
            }
            int start = i;
            while (i < s.length() && s.charAt(i) != ',' && s.charAt(i) != ']'
                    && !Character.isWhitespace(s.charAt(i))) {
                i++;
            }
            String tok = s.substring(start, i);
            switch (tok) {
                case "true":
                case "True":
                    return Boolean.TRUE;
                case "false":
                case "False":
                    return Boolean.FALSE;
                case "null":
                case "None":
                    return null;
                default:
                    if (tok.contains(".") || tok.contains("e") || tok.contains("E")) {
                        return Double.parseDouble(tok);
                    }
                    return Long.parseLong(tok);
            }
        }

        private String string(char quote) {
            i++;
            StringBuilder b = new StringBuilder();
            while (i < s.length()) {
                char c = s.charAt(i++);
                if (c == quote) {
                    return b.toString();
                }
                if (c != '\\' || i >= s.length()) {
                    b.append(c);
                    continue;
                }
                char e = s.charAt(i++);
                switch (e) {
                    case 'n': b.append('\n'); break;
                    case 't': b.append('\t'); break;
                    case 'r': b.append('\r'); break;
                    case 'b': b.append('\b'); break;
                    case 'f': b.append('\f'); break;
                    case 'u':
                        b.append((char) Integer.parseInt(s.substring(i, i + 4), 16));
                        i += 4;
                        break;
                    default: b.append(e);
                }
            }
            throw new IllegalArgumentException("unterminated string");
        }
    }

    static List<?> list(Object o) {
        if (!(o instanceof List)) {
            throw new IllegalArgumentException("expected an array, got " + o);
        }
        return (List<?>) o;
    }

    static int toInt(Object o) { return ((Number) o).intValue(); }

    static long toLong(Object o) { return ((Number) o).longValue(); }

    static double toDouble(Object o) { return ((Number) o).doubleValue(); }

    static boolean toBool(Object o) { return (Boolean) o; }

    static String toStr(Object o) { return o == null ? null : o.toString(); }

    static int[] toIntArray(Object o) {
        List<?> l = list(o);
        int[] r = new int[l.size()];
        for (int k = 0; k < r.length; k++) r[k] = toInt(l.get(k));
        return r;
    }

    static long[] toLongArray(Object o) {
        List<?> l = list(o);
        long[] r = new long[l.size()];
        for (int k = 0; k < r.length; k++) r[k] = toLong(l.get(k));
        return r;
    }

    static double[] toDoubleArray(Object o) {
        List<?> l = list(o);
        double[] r = new double[l.size()];
        for (int k = 0; k < r.length; k++) r[k] = toDouble(l.get(k));
        return r;
    }

    static boolean[] toBoolArray(Object o) {
        List<?> l = list(o);
        boolean[] r = new boolean[l.size()];
        for (int k = 0; k < r.length; k++) r[k] = toBool(l.get(k));
        return r;
    }

    static String[] toStrArray(Object o) {
        List<?> l = list(o);
        String[] r = new String[l.size()];
        for (int k = 0; k < r.length; k++) r[k] = toStr(l.get(k));
        return r;
    }

    static int[][] toIntMatrix(Object o) {
        List<?> l = list(o);
        int[][] r = new int[l.size()][];
        for (int k = 0; k < r.length; k++) r[k] = toIntArray(l.get(k));
        return r;
    }

    static String[][] toStrMatrix(Object o) {
        List<?> l = list(o);
        String[][] r = new String[l.size()][];
        for (int k = 0; k < r.length; k++) r[k] = toStrArray(l.get(k));
        return r;
    }

    static void write(StringBuilder b, Object o) {
        if (o == null) {
            b.append("null");
        } else if (o instanceof CharSequence || o instanceof Character) {
            quote(b, o.toString());
        } else if (o instanceof Double || o instanceof Float) {
            double d = ((Number) o).doubleValue();
            b.append(Double.isNaN(d) || Double.isInfinite(d) ? "null" : Double.toString(d));
        } else if (o instanceof Number || o instanceof Boolean) {
            b.append(o);
        } else if (o.getClass().isArray()) {
            int n = java.lang.reflect.Array.getLength(o);
            b.append('[');
            for (int k = 0; k < n; k++) {
                if (k > 0) b.append(',');
                write(b, java.lang.reflect.Array.get(o, k));
            }
            b.append(']');
        } else if (o instanceof Iterable) {
            b.append('[');
            boolean first = true;
            for (Object item : (Iterable<?>) o) {
                if (!first) b.append(',');
                first = false;
                write(b, item);
            }
            b.append(']');
        } else if (o instanceof Map) {
            b.append('{');
            boolean first = true;
            for (Map.Entry<?, ?> e : ((Map<?, ?>) o).entrySet()) {
                if (!first) b.append(',');
                first = false;
                quote(b, String.valueOf(e.getKey()));
                b.append(':');
                write(b, e.getValue());
            }
            b.append('}');
        } else {
            quote(b, o.toString());
        }
    }

    static void quote(StringBuilder b, String s) {
        b.append('"');
        for (int k = 0; k < s.length(); k++) {
            char c = s.charAt(k);
            switch (c) {
                case '"': b.append("\\\""); break;
                case '\\': b.append("\\\\"); break;
                case '\n': b.append("\\n"); break;
                case '\r': b.append("\\r"); break;
                case '\t': b.append("\\t"); break;
                default:
                    if (c < 0x20) {
                        b.append(String.format("\\u%04x", (int) c));
                    } else {
                        b.append(c);
                    }
            }
        }
        b.append('"');
    }
}
`

package harness

import "github.com/mini-maxit/executor/pkg/solution"

var cppTypes = map[solution.ValueType]string{
	solution.TypeInt:          "int",
	solution.TypeLong:         "long long",
	solution.TypeDouble:       "double",
	solution.TypeBool:         "bool",
	solution.TypeString:       "string",
	solution.TypeIntArray:     "vector<int>",
	solution.TypeLongArray:    "vector<long long>",
	solution.TypeDoubleArray:  "vector<double>",
	solution.TypeBoolArray:    "vector<bool>",
	solution.TypeStringArray:  "vector<string>",
	solution.TypeIntMatrix:    "vector<vector<int>>",
	solution.TypeStringMatrix: "vector<vector<string>>",
}

// Overloads of write are ordered so that the vector template, declared last, sees
// every element overload at its point of definition.
const cppDriver = `#include <bits/stdc++.h>
using namespace std;

{{.Code}}

namespace exec_harness {

struct Value {
    enum Kind { Null, Bool, Number, String, List };
    Kind kind = Null;
    bool flag = false;
    std::string text;
    std::vector<Value> items;
};

class Parser {
public:
    explicit Parser(const std::string& s) : s_(s), i_(0) {}

    Value parse() {
        Value v = value();
        skip();
        if (i_ != s_.size()) {
            throw std::runtime_error("trailing characters in " + s_);
        }
        return v;
    }

private:
    const std::string& s_;
    size_t i_;

    void skip() {
        while (i_ < s_.size() && std::isspace(static_cast<unsigned char>(s_[i_]))) {
            i_++;
        }
    }

    Value value() {
        skip();
        if (i_ >= s_.size()) {
            throw std::runtime_error("unexpected end of input");
        }
        Value v;
        char c = s_[i_];
        if (c == '[') {
            i_++;
            v.kind = Value::List;
            skip();
            if (i_ < s_.size() && s_[i_] == ']') {
                i_++;
                return v;
            }
            while (true) {
                v.items.push_back(value());
                skip();
                if (i_ >= s_.size()) {
                    throw std::runtime_error("unterminated array");
                }
                char d = s_[i_++];
                if (d == ']') {
                    return v;
                }
                if (d != ',') {
                    throw std::runtime_error("expected , or ]");
                }
            }
        }
        if (c == '"' || c == '\'') {
            v.kind = Value::String;
            v.text = str(c);
            return v;
        }
        size_t start = i_;
        while (i_ < s_.size() && s_[i_] != ',' && s_[i_] != ']' &&
               !std::isspace(static_cast<unsigned char>(s_[i_]))) {
            i_++;
        }
        std::string tok = s_.substr(start, i_ - start);
        if (tok == "true" || tok == "True") {
            v.kind = Value::Bool;
            v.flag = true;
        } else if (tok == "false" || tok == "False") {
            v.kind = Value::Bool;
        } else if (tok == "null" || tok == "None") {
            v.kind = Value::Null;
        } else {
            v.kind = Value::Number;
            v.text = tok;
        }
        return v;
    }

    std::string str(char quote) {
        i_++;
        std::string out;
        while (i_ < s_.size()) {
            char c = s_[i_++];
            if (c == quote) {
                return out;
            }
            if (c != '\\' || i_ >= s_.size()) {
                out += c;
                continue;
            }
            char e = s_[i_++];
            switch (e) {
                case 'n': out += '\n'; break;
                case 't': out += '\t'; break;
                case 'r': out += '\r'; break;
                case 'b': out += '\b'; break;
                case 'f': out += '\f'; break;
                default: out += e;
            }
        }
        throw std::runtime_error("unterminated string");
    }
};

inline const Value& need(const Value& v, Value::Kind kind) {
    if (v.kind != kind) {
        throw std::runtime_error("unexpected value kind");
    }
    return v;
}

inline int toInt(const Value& v) { return static_cast<int>(std::stoll(need(v, Value::Number).text)); }
inline long long toLong(const Value& v) { return std::stoll(need(v, Value::Number).text); }
inline double toDouble(const Value& v) { return std::stod(need(v, Value::Number).text); }
inline bool toBool(const Value& v) { return need(v, Value::Bool).flag; }
inline std::string toStr(const Value& v) { return v.kind == Value::Null ? std::string() : v.text; }

template <typename T, typename F>
std::vector<T> toVector(const Value& v, F conv) {
    std::vector<T> out;
    for (const Value& item : need(v, Value::List).items) {
        out.push_back(conv(item));
    }
    return out;
}

inline std::vector<int> toIntArray(const Value& v) { return toVector<int>(v, toInt); }
inline std::vector<long long> toLongArray(const Value& v) { return toVector<long long>(v, toLong); }
inline std::vector<double> toDoubleArray(const Value& v) { return toVector<double>(v, toDouble); }
inline std::vector<bool> toBoolArray(const Value& v) { return toVector<bool>(v, toBool); }
inline std::vector<std::string> toStrArray(const Value& v) { return toVector<std::string>(v, toStr); }
inline std::vector<std::vector<int>> toIntMatrix(const Value& v) {
    return toVector<std::vector<int>>(v, toIntArray);
}
inline std::vector<std::vector<std::string>> toStrMatrix(const Value& v) {
    return toVector<std::vector<std::string>>(v, toStrArray);
}

inline Value arg(const std::vector<std::string>& lines, size_t k) {
    if (k >= lines.size()) {
        throw std::runtime_error("missing argument " + std::to_string(k));
    }
    return Parser(lines[k]).parse();
}

inline void write(std::ostream& os, bool b) { os << (b ? "true" : "false"); }

template <typename T>
typename std::enable_if<std::is_integral<T>::value>::type write(std::ostream& os, T n) {
    os << n;
}

template <typename T>
typename std::enable_if<std::is_floating_point<T>::value>::type write(std::ostream& os, T d) {
    if (std::isnan(d) || std::isinf(d)) {
        os << "null";
        return;
    }
    char buf[64];
    for (int prec = 1; prec <= 17; prec++) {
        std::snprintf(buf, sizeof(buf), "%.*g", prec, static_cast<double>(d));
        if (std::strtod(buf, nullptr) == static_cast<double>(d)) {
            break;
        }
    }
    std::string out(buf);
    if (out.find_first_of(".eE") == std::string::npos) {
        out += ".0";
    }
    os << out;
}

inline void write(std::ostream& os, const std::string& s) {
    os << '"';
    for (char c : s) {
        switch (c) {
            case '"': os << "\\\""; break;
            case '\\': os << "\\\\"; break;
            case '\n': os << "\\n"; break;
            case '\r': os << "\\r"; break;
            case '\t': os << "\\t"; break;
            default:
                if (static_cast<unsigned char>(c) < 0x20) {
                    char esc[8];
                    std::snprintf(esc, sizeof(esc), "\\u%04x", c);
                    os << esc;
                } else {
                    os << c;
                }
        }
    }
    os << '"';
}

inline void write(std::ostream& os, const char* s) { write(os, std::string(s)); }

template <typename T>
void write(std::ostream& os, const std::vector<T>& v) {
    os << '[';
    for (size_t k = 0; k < v.size(); k++) {
        if (k > 0) {
            os << ',';
        }
        write(os, static_cast<T>(v[k]));
    }
    os << ']';
}

}  // namespace exec_harness

int main() {
    std::ios::sync_with_stdio(false);
    std::vector<std::string> lines;
    std::string line;
    while (std::getline(std::cin, line)) {
        if (!line.empty() && line.back() == '\r') {
            line.pop_back();
        }
        if (line.find_first_not_of(" \t") != std::string::npos) {
            lines.push_back(line);
        }
    }
{{range $i, $p := .EntryPoint.Params}}
    {{cppType $p.Type}} a{{$i}} = exec_harness::{{conv $p.Type}}(exec_harness::arg(lines, {{$i}}));
{{- end}}

    Solution sol;
    auto result = sol.{{.EntryPoint.Name}}({{args .EntryPoint.Params}});
    exec_harness::write(std::cout, result);
    std::cout << '\n';
    return 0;
}
`

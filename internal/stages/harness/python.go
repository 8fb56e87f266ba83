package harness

const pythonDriver = `{{.Code}}


def _harness_main():
    import ast
    import json
    import sys

    def parse(line):
        try:
            return json.loads(line)
        except ValueError:
            return ast.literal_eval(line)

    lines = [line for line in sys.stdin.read().splitlines() if line.strip()]
    args = [parse(line) for line in lines[:{{len .EntryPoint.Params}}]]

    namespace = globals()
    fn = namespace.get({{quote .EntryPoint.Name}})
    if fn is None and "Solution" in namespace:
        fn = getattr(namespace["Solution"](), {{quote .EntryPoint.Name}})
    if fn is None:
        raise NameError("name '{{.EntryPoint.Name}}' is not defined")

    result = fn(*args)
    sys.stdout.write(json.dumps(result, separators=(",", ":")) + "\n")


if __name__ == "__main__":
    _harness_main()
`

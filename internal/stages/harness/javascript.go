package harness

const javascriptDriver = `{{.Code}}

;(function () {
  const lines = require('fs')
    .readFileSync(0, 'utf8')
    .split('\n')
    .filter((line) => line.trim() !== '');

  const parse = (line) => {
    try {
      return JSON.parse(line);
    } catch (err) {
      // single quoted and Python style literals
      return JSON.parse(
        line
          .replace(/'/g, '"')
          .replace(/\bTrue\b/g, 'true')
          .replace(/\bFalse\b/g, 'false')
          .replace(/\bNone\b/g, 'null'),
      );
    }
  };

  const resolve = () => {
    if (typeof {{.EntryPoint.Name}} === 'function') {
      return {{.EntryPoint.Name}};
    }
    if (typeof Solution === 'function') {
      const instance = new Solution();
      return instance[{{quote .EntryPoint.Name}}].bind(instance);
    }
    throw new ReferenceError({{quote .EntryPoint.Name}} + ' is not defined');
  };

  const args = [];
  for (let i = 0; i < {{len .EntryPoint.Params}}; i++) {
    args.push(i < lines.length ? parse(lines[i]) : undefined);
  }

  Promise.resolve(resolve()(...args)).then((result) => {
    const out = JSON.stringify(result);
    process.stdout.write((out === undefined ? 'null' : out) + '\n');
  }, (err) => {
    console.error(err && err.stack ? err.stack : err);
    process.exitCode = 1;
  });
})();
`
